// Package errs defines the closed error taxonomy shared by every primitive.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one of the nine closed error categories every primitive can
// raise. Every user-visible failure carries exactly one Kind, a one-line
// Cause, and a Solution pointing at the next corrective action.
type Kind string

const (
	KindNotFound               Kind = "NotFound"
	KindAlreadyExists          Kind = "AlreadyExists"
	KindConditionFailed        Kind = "ConditionFailed"
	KindCoordinationUnavailable Kind = "CoordinationUnavailable"
	KindInvalidArgument        Kind = "InvalidArgument"
	KindServiceThrottled       Kind = "ServiceThrottled"
	KindServiceError           Kind = "ServiceError"
	KindPermissionDenied       Kind = "PermissionDenied"
	KindTimeout                Kind = "Timeout"
)

// Error is the sum-typed error every primitive returns instead of raising
// an exception. The wrapped cause is retained for --verbose output only.
type Error struct {
	Kind     Kind
	Cause    string
	Solution string
	wrapped  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Cause) }

// Unwrap exposes the original remote-service error for errors.Is/As and
// for --verbose diagnostics; it is never printed in the default envelope.
func (e *Error) Unwrap() error { return e.wrapped }

func New(kind Kind, cause, solution string) *Error {
	return &Error{Kind: kind, Cause: cause, Solution: solution}
}

func Wrap(kind Kind, cause, solution string, wrapped error) *Error {
	return &Error{Kind: kind, Cause: cause, Solution: solution, wrapped: errors.WithStack(wrapped)}
}

func NotFound(cause, solution string) *Error {
	return New(KindNotFound, cause, solution)
}

func AlreadyExists(cause, solution string) *Error {
	return New(KindAlreadyExists, cause, solution)
}

func ConditionFailed(cause, solution string) *Error {
	return New(KindConditionFailed, cause, solution)
}

func CoordinationUnavailable(cause, solution string) *Error {
	return New(KindCoordinationUnavailable, cause, solution)
}

func InvalidArgument(cause, solution string) *Error {
	return New(KindInvalidArgument, cause, solution)
}

func Timeout(cause, solution string) *Error {
	return New(KindTimeout, cause, solution)
}

// As recovers a *Error from any error returned by a primitive, defaulting
// to ServiceError when the failure did not originate in this package (e.g.
// a context deadline or an unclassified SDK error escaped the driver).
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(KindServiceError, err.Error(), "retry with --verbose for the underlying service error", err)
}

// ExitCode maps a Kind to its fixed process exit code.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindNotFound:
		return 1
	case KindInvalidArgument:
		return 2
	case KindServiceThrottled, KindServiceError, KindPermissionDenied:
		return 3
	case KindAlreadyExists, KindConditionFailed, KindCoordinationUnavailable:
		return 4
	case KindTimeout:
		return 5
	default:
		return 3
	}
}
