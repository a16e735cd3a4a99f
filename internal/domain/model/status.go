package model

import (
	"errors"
	"fmt"
)

// Status is a native secure-store result code. Zero means success; the
// negative values follow the platform's Security framework numbering.
type Status int32

const (
	StatusSuccess               Status = 0
	StatusUnimplemented         Status = -4
	StatusIO                    Status = -36
	StatusParam                 Status = -50
	StatusAllocate              Status = -108
	StatusUserCanceled          Status = -128
	StatusBadReq                Status = -909
	StatusInternalComponent     Status = -2070
	StatusNotAvailable          Status = -25291
	StatusAuthFailed            Status = -25293
	StatusDuplicateItem         Status = -25299
	StatusItemNotFound          Status = -25300
	StatusInteractionNotAllowed Status = -25308
	StatusDecode                Status = -26275
	StatusMissingEntitlement    Status = -34018

	// Local codes, raised before the store is called.
	StatusBadArguments    Status = -1001
	StatusInvalidEncoding Status = -1002
)

var statusDescriptions = map[Status]string{
	StatusSuccess:               "No error.",
	StatusUnimplemented:         "Function or operation not implemented.",
	StatusIO:                    "I/O error.",
	StatusParam:                 "One or more parameters passed to a function were not valid.",
	StatusAllocate:              "Failed to allocate memory.",
	StatusUserCanceled:          "User canceled the operation.",
	StatusBadReq:                "Bad parameter or invalid state for operation.",
	StatusInternalComponent:     "An internal component failed.",
	StatusNotAvailable:          "No keychain is available.",
	StatusAuthFailed:            "The user name or passphrase you entered is not correct.",
	StatusDuplicateItem:         "The specified item already exists in the keychain.",
	StatusItemNotFound:          "The specified item could not be found in the keychain.",
	StatusInteractionNotAllowed: "User interaction is not allowed.",
	StatusDecode:                "Unable to decode the provided data.",
	StatusMissingEntitlement:    "A required entitlement isn't present.",
	StatusBadArguments:          "Some of the arguments were invalid.",
	StatusInvalidEncoding:       "The secret is not valid UTF-8.",
}

// Description returns the fallback message for s.
func (s Status) Description() string {
	if d, ok := statusDescriptions[s]; ok {
		return d
	}
	return fmt.Sprintf("Keychain error %d.", int32(s))
}

// Kind classifies s into the error taxonomy.
func (s Status) Kind() ErrorKind {
	switch s {
	case StatusItemNotFound:
		return KindNotFound
	case StatusDuplicateItem:
		return KindDuplicate
	case StatusAuthFailed, StatusUserCanceled, StatusInteractionNotAllowed, StatusMissingEntitlement:
		return KindAccessDenied
	case StatusParam, StatusBadReq, StatusBadArguments:
		return KindInvalidParameters
	case StatusInvalidEncoding:
		return KindEncoding
	default:
		return KindNativeFailure
	}
}

// StatusError is what a SecureStore returns when a call does not succeed.
// Message is the store's own description and may be empty.
type StatusError struct {
	Status  Status
	Message string
	Err     error
}

// NewStatusError creates a StatusError carrying the store's message.
func NewStatusError(status Status, msg string) *StatusError {
	return &StatusError{Status: status, Message: msg}
}

// WrapStatus creates a StatusError around an underlying failure, using the
// failure's text as the message.
func WrapStatus(status Status, err error) *StatusError {
	return &StatusError{Status: status, Message: err.Error(), Err: err}
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", int32(e.Status), e.Message)
	}
	return fmt.Sprintf("status %d", int32(e.Status))
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// StatusOf extracts the native status from err. Errors that carry no status
// report StatusInternalComponent; nil reports StatusSuccess.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return StatusInternalComponent
}
