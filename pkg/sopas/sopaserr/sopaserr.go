// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sopaserr defines the closed set of error conditions the SOPAS-ASCII
// driver can report: the sensor's own SOPAS error indices plus the local
// transport/parse failure kinds layered on top of them.
package sopaserr

// Code is a closed enumeration of driver error kinds. The zero value is Ok.
type Code uint8

// Sensor-reported SOPAS error indices, 1..26, in the order the sensor's sFA
// reply encodes them. Named exactly as in the reference implementation so
// that a logged Code string matches what the device manual documents.
const (
	Ok Code = iota
	SopasErrorMethodinAccessdenied
	SopasErrorMethodinUnknownindex
	SopasErrorVariableUnknownindex
	SopasErrorLocalconditionfailed
	SopasErrorInvalidData
	SopasErrorUnknownError
	SopasErrorBufferOverflow
	SopasErrorBufferUnderflow
	SopasErrorErrorUnknownType
	SopasErrorVariableWriteAccessdenied
	SopasErrorUnknownCmdForNameserver
	SopasErrorUnknownColaCommand
	SopasErrorMethodinServerBusy
	SopasErrorFlexOutOfBounds
	SopasErrorEventregUnknownindex
	SopasErrorColaAValueOverflow
	SopasErrorColaAInvalidCharacter
	SopasErrorOsaiNoMessage
	SopasErrorOsaiNoAnswerMessage
	SopasErrorInternal
	SopasErrorHubAddressCorrupted
	SopasErrorHubAddressDecoding
	SopasErrorHubAddressAddressExceeded
	SopasErrorHubAddressBlankExpected
	SopasErrorAsyncMethodsAreSuppressed
	SopasErrorComplexArraysNotSupported

	// Local failure kinds that never arrive over the wire as a sensor index.
	CustomError
	InvalidDatagram
	CommandFailure
	SocketSend
	SocketRecv

	numCodes
)

var codeNames = [numCodes]string{
	Ok:                                   "Ok",
	SopasErrorMethodinAccessdenied:       "Sopas_Error_METHODIN_ACCESSDENIED",
	SopasErrorMethodinUnknownindex:       "Sopas_Error_METHODIN_UNKNOWNINDEX",
	SopasErrorVariableUnknownindex:       "Sopas_Error_VARIABLE_UNKNOWNINDEX",
	SopasErrorLocalconditionfailed:       "Sopas_Error_LOCALCONDITIONFAILED",
	SopasErrorInvalidData:                "Sopas_Error_INVALID_DATA",
	SopasErrorUnknownError:               "Sopas_Error_UNKNOWN_ERROR",
	SopasErrorBufferOverflow:             "Sopas_Error_BUFFER_OVERFLOW",
	SopasErrorBufferUnderflow:            "Sopas_Error_BUFFER_UNDERFLOW",
	SopasErrorErrorUnknownType:           "Sopas_Error_ERROR_UNKNOWN_TYPE",
	SopasErrorVariableWriteAccessdenied:  "Sopas_Error_VARIABLE_WRITE_ACCESSDENIED",
	SopasErrorUnknownCmdForNameserver:    "Sopas_Error_UNKNOWN_CMD_FOR_NAMESERVER",
	SopasErrorUnknownColaCommand:         "Sopas_Error_UNKNOWN_COLA_COMMAND",
	SopasErrorMethodinServerBusy:         "Sopas_Error_METHODIN_SERVER_BUSY",
	SopasErrorFlexOutOfBounds:            "Sopas_Error_FLEX_OUT_OF_BOUNDS",
	SopasErrorEventregUnknownindex:       "Sopas_Error_EVENTREG_UNKNOWNINDEX",
	SopasErrorColaAValueOverflow:         "Sopas_Error_COLA_A_VALUE_OVERFLOW",
	SopasErrorColaAInvalidCharacter:      "Sopas_Error_COLA_A_INVALID_CHARACTER",
	SopasErrorOsaiNoMessage:              "Sopas_Error_OSAI_NO_MESSAGE",
	SopasErrorOsaiNoAnswerMessage:        "Sopas_Error_OSAI_NO_ANSWER_MESSAGE",
	SopasErrorInternal:                   "Sopas_Error_INTERNAL",
	SopasErrorHubAddressCorrupted:        "Sopas_Error_HubAddressCorrupted",
	SopasErrorHubAddressDecoding:         "Sopas_Error_HubAddressDecoding",
	SopasErrorHubAddressAddressExceeded:  "Sopas_Error_HubAddressAddressExceeded",
	SopasErrorHubAddressBlankExpected:    "Sopas_Error_HubAddressBlankExpected",
	SopasErrorAsyncMethodsAreSuppressed:  "Sopas_Error_AsyncMethodsAreSuppressed",
	SopasErrorComplexArraysNotSupported:  "Sopas_Error_ComplexArraysNotSupported",
	CustomError:                          "CustomError",
	InvalidDatagram:                      "InvalidDatagram",
	CommandFailure:                       "CommandFailure",
	SocketSend:                           "SocketSend",
	SocketRecv:                           "SocketRecv",
}

// String renders the stable enumerator name, suitable for direct logging.
func (c Code) String() string {
	if c >= numCodes {
		return "Unknown"
	}
	return codeNames[c]
}

// FromSensorIndex maps a sensor-reported sFA index (1..26) to its Code.
// Indices outside that range map to CustomError.
func FromSensorIndex(idx int) Code {
	if idx < 1 || idx > int(SopasErrorComplexArraysNotSupported) {
		return CustomError
	}
	return Code(idx)
}

// Error wraps a Code as a Go error, optionally carrying the underlying
// cause (a transport error, a parse error, ...).
type Error struct {
	Code Code
	Err  error
}

// New creates an *Error for the given code with no underlying cause.
func New(code Code) *Error {
	return &Error{Code: code}
}

// Wrap creates an *Error for the given code, carrying err as the cause.
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code.String() + ": " + e.Err.Error()
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error with the same Code, so callers can
// use errors.Is(err, sopaserr.New(sopaserr.InvalidDatagram)).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Code == e.Code
}
