// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package instance

import (
	"errors"

	"github.com/aws/smithy-go"
)

var (
	ErrNotFound    = errors.New("instance not found")
	ErrTerminated  = errors.New("instance is terminated")
	ErrInvalidSpec = errors.New("invalid launch spec")
	ErrNoInstance  = errors.New("no instance ID given")
)

// apiErrorCode returns the EC2 error code carried by err, or "".
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func isNotFound(err error) bool {
	switch apiErrorCode(err) {
	case "InvalidInstanceID.NotFound", "InvalidInstanceID.Malformed":
		return true
	}
	return false
}

// isDryRunOK reports the error EC2 returns when a DryRun request would have
// succeeded.
func isDryRunOK(err error) bool {
	return apiErrorCode(err) == "DryRunOperation"
}
