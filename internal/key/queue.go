package key

import "fmt"

// QueueEntrySortKey encodes the strict (priority asc, timestamp asc, uuid
// asc) ordering into a single comparable string:
// "queue:<name>#<priority:010d>#<timestampMicros>#<uuid>".
func QueueEntrySortKey(name string, priority int, timestampMicros int64, uuid string) string {
	return fmt.Sprintf("queue:%s#%010d#%020d#%s", name, priority, timestampMicros, uuid)
}

// DedupPartitionKey and DedupSortKey locate the companion uniqueness item
// that enforces idempotent dedup, independent of ordering.
func DedupPartitionKey(queueName string) string {
	return fmt.Sprintf("queue-dedup:%s", queueName)
}

func DedupSortKey(queueName, dedupID string) string {
	return fmt.Sprintf("queue-dedup:%s#%s", queueName, dedupID)
}
