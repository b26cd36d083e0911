// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sopascmd

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/sick-lms/sopas-driver/pkg/sopas/frame"
	"github.com/sick-lms/sopas-driver/pkg/sopas/sopaserr"
)

// ClassifyReply turns one complete reply frame into an error kind. A nil
// error means classification itself succeeded; the returned Code carries
// the actual outcome (sopaserr.Ok on success, some other Code otherwise).
func ClassifyReply(replyFrame []byte) (sopaserr.Code, error) {
	if !frame.Validate(replyFrame) {
		return sopaserr.CustomError, sopaserr.Wrap(sopaserr.InvalidDatagram, errors.New("sopascmd: malformed reply frame"))
	}

	payload := replyFrame[1 : len(replyFrame)-1]
	toks := bytes.Fields(payload)
	if len(toks) == 0 {
		return sopaserr.CustomError, sopaserr.Wrap(sopaserr.InvalidDatagram, errors.New("sopascmd: empty reply"))
	}

	method := string(toks[0])
	if method == "sFA" {
		if len(toks) < 2 {
			return sopaserr.CustomError, sopaserr.Wrap(sopaserr.InvalidDatagram, errors.New("sopascmd: sFA reply missing error index"))
		}
		idx, err := strconv.ParseUint(string(toks[1]), 16, 8)
		if err != nil {
			return sopaserr.CustomError, sopaserr.Wrap(sopaserr.InvalidDatagram, err)
		}
		return sopaserr.FromSensorIndex(int(idx)), nil
	}

	if len(toks) < 2 {
		return sopaserr.CustomError, sopaserr.Wrap(sopaserr.InvalidDatagram, errors.New("sopascmd: reply missing command name"))
	}
	cmdName := string(toks[1])

	if len(toks) < 3 {
		return sopaserr.Ok, nil
	}

	status, err := strconv.Atoi(string(toks[2]))
	if err != nil {
		return sopaserr.CustomError, sopaserr.Wrap(sopaserr.InvalidDatagram, err)
	}

	if statusOK(cmdName, status) {
		return sopaserr.Ok, nil
	}
	return sopaserr.CustomError, nil
}

// statusOK is the per-command ok-predicate applied to a reply's status
// token.
func statusOK(cmdName string, status int) bool {
	switch cmdName {
	case MLMPsetscancfg.Name(), LMCstopmeas.Name(), LMCstartmeas.Name():
		return status == 0
	case MEEwriteall.Name(), Run.Name():
		return status == 1
	case LMDscandata.Name():
		return true
	default:
		return status == 1
	}
}
