package topic

import (
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// classify mirrors store.classify and blob.classify's boundary-translation
// role, for SNS's error vocabulary.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	awsErr, ok := err.(awserr.Error)
	if !ok {
		return errs.Wrap(errs.KindServiceError, op+": "+err.Error(), "retry the operation; use --verbose for details", err)
	}
	switch awsErr.Code() {
	case "NotFound":
		return errs.Wrap(errs.KindNotFound, op+": topic not found", "check the topic ARN/name for typos", err)
	case "Throttling", "ThrottlingException":
		return errs.Wrap(errs.KindServiceThrottled, op+": request throttled", "the operation will be retried automatically with backoff", err)
	case "AuthorizationError":
		return errs.Wrap(errs.KindPermissionDenied, op+": access denied", "check the caller's IAM policy for this topic", err)
	case "InvalidParameter", "InvalidParameterValue", "ValidationException":
		return errs.Wrap(errs.KindInvalidArgument, op+": "+awsErr.Message(), "check the request shape", err)
	default:
		return errs.Wrap(errs.KindServiceError, op+": "+awsErr.Message(), "use --verbose for the underlying service error", err)
	}
}
