package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors.
// Cause is the error kind (one of the sentinels below); Err is the underlying failure, if any.
type AppError struct {
	Code    string
	Message string
	Cause   error
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes both the kind and the underlying error to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	var out []error
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Error kinds. Match with errors.Is.
var (
	ErrTransportConnect = errors.New("transport connect failed")
	ErrTransportIO      = errors.New("transport i/o failed")
	ErrUnreadableImage  = errors.New("unreadable image")
	ErrCorruptDocument  = errors.New("corrupt document")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrInvalidDate      = errors.New("invalid date")
	ErrLedgerWrite      = errors.New("ledger write failed")
	ErrLedgerRead       = errors.New("ledger read failed")
	ErrLedgerConnect    = errors.New("ledger connect failed")
	ErrAlertDelivery    = errors.New("alert delivery failed")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

var codes = map[error]string{
	ErrTransportConnect: "TRANSPORT_CONNECT",
	ErrTransportIO:      "TRANSPORT_IO",
	ErrUnreadableImage:  "UNREADABLE_IMAGE",
	ErrCorruptDocument:  "CORRUPT_DOCUMENT",
	ErrMalformedPayload: "MALFORMED_PAYLOAD",
	ErrInvalidDate:      "INVALID_DATE",
	ErrLedgerWrite:      "LEDGER_WRITE",
	ErrLedgerRead:       "LEDGER_READ",
	ErrLedgerConnect:    "LEDGER_CONNECT",
	ErrAlertDelivery:    "ALERT_DELIVERY",
	ErrInvalidConfig:    "CONFIG_ERROR",
}

// KindError wraps err as the given kind. The code is derived from the kind.
func KindError(kind error, message string, err error) *AppError {
	code, ok := codes[kind]
	if !ok {
		code = "INTERNAL"
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   kind,
		Err:     err,
	}
}

// KindErrorf is KindError with a formatted message and no underlying error.
func KindErrorf(kind error, format string, args ...any) *AppError {
	return KindError(kind, fmt.Sprintf(format, args...), nil)
}

// Code returns the AppError code carried by err, or "" if there is none.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// WrapError prefixes err with message, keeping it matchable. A nil err stays nil.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
