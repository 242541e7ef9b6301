package blob

import (
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// classify mirrors store.classify's boundary-translation role, but for
// S3's error vocabulary rather than DynamoDB's.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	awsErr, ok := err.(awserr.Error)
	if !ok {
		return errs.Wrap(errs.KindServiceError, op+": "+err.Error(), "retry the operation; use --verbose for details", err)
	}
	switch awsErr.Code() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return errs.Wrap(errs.KindConditionFailed, op+": precondition not met", "the object changed since it was last read, or already exists", err)
	case "NoSuchKey", "NoSuchVersion", "NotFound":
		return errs.Wrap(errs.KindNotFound, op+": object not found", "check the bucket/key for typos, or the version id", err)
	case "NoSuchBucket":
		return errs.Wrap(errs.KindNotFound, op+": bucket not found", "create the bucket first with blob bucket create", err)
	case "SlowDown", "RequestLimitExceeded", "ThrottlingException":
		return errs.Wrap(errs.KindServiceThrottled, op+": request throttled", "the operation will be retried automatically with backoff", err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errs.Wrap(errs.KindPermissionDenied, op+": access denied", "check the caller's IAM policy for this bucket/key", err)
	case "InvalidArgument", "InvalidRange", "EntityTooLarge", "InvalidPart", "InvalidPartOrder":
		return errs.Wrap(errs.KindInvalidArgument, op+": "+awsErr.Message(), "check the request shape, part sizes, and ordering", err)
	default:
		return errs.Wrap(errs.KindServiceError, op+": "+awsErr.Message(), "use --verbose for the underlying service error", err)
	}
}
