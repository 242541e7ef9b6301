package store

import (
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// classify turns a raw aws-sdk-go error into the closed errs taxonomy at
// the DynamoDB boundary. Only ConditionalCheckFailedException and
// TransactionCanceledException become Conflict-shaped
// (errs.KindConditionFailed); the calling primitive is
// responsible for re-labeling it to its semantic cousin (AlreadyExists,
// NotFound, or a lost race) based on what it was trying to do.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	awsErr, ok := err.(awserr.Error)
	if !ok {
		return errs.Wrap(errs.KindServiceError, op+": "+err.Error(), "retry the operation; use --verbose for details", err)
	}
	switch awsErr.Code() {
	case "ConditionalCheckFailedException", "TransactionCanceledException":
		return errs.Wrap(errs.KindConditionFailed, op+": condition not met", "the item already exists, is held, or does not match the expected value/version", err)
	case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
		return errs.Wrap(errs.KindServiceThrottled, op+": request throttled", "the operation will be retried automatically with backoff", err)
	case "ResourceNotFoundException":
		return errs.Wrap(errs.KindNotFound, op+": resource not found", "verify the table name with --table or APTOOL_TABLE", err)
	case "AccessDeniedException", "UnrecognizedClientException":
		return errs.Wrap(errs.KindPermissionDenied, op+": access denied", "check the caller's IAM policy for this table/action", err)
	case "ValidationException", "ItemCollectionSizeLimitExceededException":
		return errs.Wrap(errs.KindInvalidArgument, op+": "+awsErr.Message(), "check the request shape and attribute sizes", err)
	default:
		return errs.Wrap(errs.KindServiceError, op+": "+awsErr.Message(), "use --verbose for the underlying service error", err)
	}
}
