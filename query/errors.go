/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"k8s.io/apimachinery/pkg/util/sets"
)

// ConfigurationError is returned when a method cannot be built, mostly because no credentials are available.
// It is never retried.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// InternalError reports a local failure: transport error, unreadable or unparseable response.
type InternalError struct {
	Operation string
	Err       error
}

func (e *InternalError) Error() string {
	return e.Operation + ": internal error: " + e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// ServiceError is an error reported by the service in an <Error> envelope.
type ServiceError struct {
	Operation  string
	statusCode int
	code       string
	message    string
	requestID  string
}

// NewServiceError builds a ServiceError.
func NewServiceError(operation string, statusCode int, code, message, requestID string) *ServiceError {
	return &ServiceError{
		Operation:  operation,
		statusCode: statusCode,
		code:       code,
		message:    message,
		requestID:  requestID,
	}
}

func (e *ServiceError) Error() string {
	str := e.Operation + ": " + e.code
	if e.message != "" {
		str += ": " + e.message
	}
	str += fmt.Sprintf(" (status %d", e.statusCode)
	if e.requestID != "" {
		str += ", request id " + e.requestID
	}
	return str + ")"
}

// Code returns the error code set by the service.
func (e *ServiceError) Code() string { return e.code }

// Message returns the error message set by the service.
func (e *ServiceError) Message() string { return e.message }

// OrigErr is always nil, service errors do not wrap anything.
func (e *ServiceError) OrigErr() error { return nil }

// StatusCode returns the HTTP status of the response.
func (e *ServiceError) StatusCode() int { return e.statusCode }

// RequestID returns the request id set by the service.
func (e *ServiceError) RequestID() string { return e.requestID }

var _ awserr.RequestFailure = (*ServiceError)(nil)

// GenericCloudError is an error response without a parseable <Error> envelope.
type GenericCloudError struct {
	Operation  string
	StatusCode int
	// Reason is the flattened body for 403 responses, "unable to parse error" otherwise.
	Reason string
	// Body is a flattened and truncated copy of the response body.
	Body string
}

func (e *GenericCloudError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Operation, e.Reason, e.StatusCode)
}

// ServiceUnavailableError is returned once all attempts failed with a 500 or 503 status.
type ServiceUnavailableError struct {
	Operation  string
	StatusCode int
	Attempts   int
	Body       string
}

func (e *ServiceUnavailableError) Error() string {
	if e.StatusCode == 503 {
		return fmt.Sprintf("%s: service unavailable after %d attempts", e.Operation, e.Attempts)
	}
	return fmt.Sprintf("%s: server error after %d attempts: %s", e.Operation, e.Attempts, e.Body)
}

var notFoundCodes = sets.New(
	"NoSuchChange",
	"NoSuchDelegationSet",
	"NoSuchEntity",
	"NoSuchHealthCheck",
	"NoSuchHostedZone",
	"NoSuchLoadBalancer",
	"LoadBalancerNotFound",
)

// ErrorCode returns the code of a service error, or "".
func ErrorCode(err error) string {
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		return awsErr.Code()
	}
	return ""
}

// IsNotFound checks if the error is a "not found" error for resources.
func IsNotFound(err error) bool {
	code := ErrorCode(err)
	if code == "" {
		return false
	}
	return strings.Contains(code, "NotFound") || notFoundCodes.Has(code)
}

// IgnoreNotFound returns nil for "not found" errors, err otherwise.
func IgnoreNotFound(err error) error {
	if IsNotFound(err) {
		return nil
	}
	return err
}

// Outcome is the classification of a call result, as seen by callers.
type Outcome int

const (
	OK Outcome = iota
	NotFound
	Failed
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "OK"
	case NotFound:
		return "NotFound"
	default:
		return "Failed"
	}
}

// Classify maps a call error to an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OK
	case IsNotFound(err):
		return NotFound
	default:
		return Failed
	}
}
