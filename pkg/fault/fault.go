// Package fault - error instances
//
// Provides a single instance of each error to allow easy comparison
// without having to resort to partial string matches, plus a few
// structured errors that carry the failing input and wrap a cause.
package fault

import (
	"errors"
	"fmt"
)

// error base
type GenericError string

// to allow for different classes of errors
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type CorruptError GenericError

// common errors - keep in alphabetic order
var (
	ErrCorruptPayload   = CorruptError("stored state vector payload is malformed")
	ErrEmpty            = ProcessError("no epochs are known")
	ErrEmptyFeed        = ProcessError("no state vectors found in feed")
	ErrIndexMismatch    = CorruptError("epoch index and stored samples disagree")
	ErrKeyMismatch      = InvalidError("state vector epoch does not match key")
	ErrLimitNotInteger  = InvalidError("limit parameter must be an integer")
	ErrNegativeLimit    = InvalidError("limit parameter must not be negative")
	ErrNegativeOffset   = InvalidError("offset parameter must not be negative")
	ErrNoPlace          = NotFoundError("no nearest geolocation found")
	ErrNoSource         = ProcessError("no feed source configured")
	ErrNotFoundEpoch    = NotFoundError("No matching EPOCH")
	ErrOffsetNotInteger = InvalidError("offset parameter must be an integer")
	ErrOffsetOutOfRange = InvalidError("offset param. out of range.")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e CorruptError) Error() string  { return string(e) }

// determine the class of an error
func IsErrInvalid(e error) bool  { var t InvalidError; return errors.As(e, &t) }
func IsErrNotFound(e error) bool { var t NotFoundError; return errors.As(e, &t) }
func IsErrProcess(e error) bool  { var t ProcessError; return errors.As(e, &t) }
func IsErrCorrupt(e error) bool  { var t CorruptError; return errors.As(e, &t) }

// FetchError reports an upstream service that could not be reached or
// answered with a non-2xx status.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a payload that is not in the expected structured format.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.What, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// TimestampParseError reports a malformed epoch string.
type TimestampParseError struct {
	Raw    string
	Reason string
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("invalid epoch %q: %s", e.Raw, e.Reason)
}

// TransformError reports a failed coordinate transform.
type TransformError struct {
	Epoch string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform of epoch %q failed: %v", e.Epoch, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// IngestError reports a feed that could not be ingested at all.
type IngestError struct {
	Err error
}

func (e *IngestError) Error() string { return fmt.Sprintf("ingest failed: %v", e.Err) }
func (e *IngestError) Unwrap() error { return e.Err }

// PartialIngestError reports a batch aborted part way through.
// Processed samples before Key are already in the store.
type PartialIngestError struct {
	Processed int
	Key       string
	Err       error
}

func (e *PartialIngestError) Error() string {
	return fmt.Sprintf("ingest aborted at epoch %q after %d samples: %v", e.Key, e.Processed, e.Err)
}

func (e *PartialIngestError) Unwrap() error { return e.Err }

// IsTimestampError reports whether err carries a TimestampParseError.
func IsTimestampError(err error) bool {
	var t *TimestampParseError
	return errors.As(err, &t)
}
