package webhook

import (
	"fmt"

	apperrors "prompt-builder/internal/common/errors"
)

// HTTPError is returned when the webhook answers outside the 2xx range.
type HTTPError struct {
	StatusCode int
	StatusText string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s - %s", e.StatusCode, e.StatusText, e.Body)
}

func (e *HTTPError) ErrorCode() apperrors.ErrorCode {
	return apperrors.ErrCodeWebhookRejected
}

// TransportError is returned when no response was received at all. Its
// message is the message of the underlying failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) ErrorCode() apperrors.ErrorCode {
	return apperrors.ErrCodeWebhookUnreachable
}

// EncodeError is returned when the payload cannot be marshalled.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode payload: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

func (e *EncodeError) ErrorCode() apperrors.ErrorCode {
	return apperrors.ErrCodePayloadEncode
}
