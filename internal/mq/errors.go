package mq

import (
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// classify mirrors store.classify, blob.classify, and topic.classify's
// boundary-translation role, but for SQS's error vocabulary.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	awsErr, ok := err.(awserr.Error)
	if !ok {
		return errs.Wrap(errs.KindServiceError, op+": "+err.Error(), "retry the operation; use --verbose for details", err)
	}
	switch awsErr.Code() {
	case "AWS.SimpleQueueService.NonExistentQueue":
		return errs.Wrap(errs.KindNotFound, op+": queue not found", "check the queue name/URL for typos", err)
	case "QueueDoesNotExist":
		return errs.Wrap(errs.KindNotFound, op+": queue not found", "check the queue name/URL for typos", err)
	case "QueueAlreadyExists", "AWS.SimpleQueueService.QueueDeletedRecently":
		return errs.Wrap(errs.KindAlreadyExists, op+": "+awsErr.Message(), "choose a different queue name or wait before recreating it", err)
	case "AWS.SimpleQueueService.MessageNotInflight", "ReceiptHandleIsInvalid":
		return errs.Wrap(errs.KindConditionFailed, op+": "+awsErr.Message(), "the message's visibility window has already elapsed; receive it again", err)
	case "Throttling", "ThrottlingException", "RequestThrottled", "TooManyRequestsException":
		return errs.Wrap(errs.KindServiceThrottled, op+": request throttled", "the operation will be retried automatically with backoff", err)
	case "AccessDenied", "AWS.SimpleQueueService.UnsupportedOperation":
		return errs.Wrap(errs.KindPermissionDenied, op+": access denied", "check the caller's IAM policy for this queue", err)
	case "InvalidParameterValue", "InvalidAttributeName", "ValidationException", "InvalidParameterCombination":
		return errs.Wrap(errs.KindInvalidArgument, op+": "+awsErr.Message(), "check the request shape", err)
	default:
		return errs.Wrap(errs.KindServiceError, op+": "+awsErr.Message(), "use --verbose for the underlying service error", err)
	}
}
