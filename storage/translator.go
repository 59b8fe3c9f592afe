package storage

import (
	"context"
	stderrors "errors"

	"github.com/aws/smithy-go"

	"github.com/estatly/mediasign/errors"
	"github.com/estatly/mediasign/httpclient"
)

const serviceName = "object storage"

// Translate converts a provider error into an AppError. Errors that are
// already AppErrors pass through unchanged.
func Translate(err error) *errors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case stderrors.Is(err, ErrNotFound), httpclient.IsNotFound(err):
		return errors.NotFound("object", "").WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled), httpclient.IsTimeout(err):
		return errors.Timeout(serviceName).WithCause(err)
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return errors.NotFound("object", "").WithCause(err)
		case "SlowDown", "RequestLimitExceeded":
			return errors.RateLimited().WithCause(err)
		}
	}
	return errors.ExternalServiceError(serviceName, err)
}
