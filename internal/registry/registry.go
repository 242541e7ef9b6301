// Package registry exports aptool's command/flag table as data for
// `aptool completion`. The table is a hand-maintained copy that sits
// alongside the urfave/cli command tables declared in cmd/aptool/commands.
package registry

// Flag describes one leaf-command flag for completion purposes.
type Flag struct {
	Name  string
	Usage string
}

// Command describes one leaf subcommand.
type Command struct {
	Name      string
	Usage     string
	ArgsUsage string
	Flags     []Flag
}

// Category groups the commands under one top-level noun (`kv`, `counter`,
// ...), mirroring how cmd/aptool/commands lays out its []cli.Command
// tables per category.
type Category struct {
	Name     string
	Usage    string
	Commands []Command
}

// GlobalFlags lists the root cli.App flags, declared once and shared by
// every category (cliutil.GlobalFlags is the authoritative cli.Flag
// construction; this is its completion-facing shadow).
var GlobalFlags = []Flag{
	{Name: "table", Usage: "backing item-store table name"},
	{Name: "region", Usage: "AWS region"},
	{Name: "profile", Usage: "AWS shared-config profile"},
	{Name: "format", Usage: "output format: json|json-lines|value|table"},
	{Name: "verbose", Usage: "print the underlying service error beneath each failure"},
	{Name: "quiet", Usage: "suppress all non-error stderr output"},
	{Name: "timeout", Usage: "per-command deadline in seconds"},
	{Name: "dry-run", Usage: "print the request that would be sent without performing it"},
}

// All returns the canonical category/command table. It is a plain data
// literal rather than something introspected off the live cli.App so that
// `aptool completion` works even when invoked before the App is built.
func All() []Category {
	return []Category{
		{Name: "kv", Usage: "durable key/value primitive", Commands: []Command{
			{Name: "set", Usage: "set a key's value", ArgsUsage: "NAME VALUE", Flags: []Flag{{Name: "ttl"}, {Name: "if-not-exists"}}},
			{Name: "get", Usage: "read a key's value", ArgsUsage: "NAME", Flags: []Flag{{Name: "default"}}},
			{Name: "exists", Usage: "check whether a key exists", ArgsUsage: "NAME"},
			{Name: "delete", Usage: "delete a key", ArgsUsage: "NAME", Flags: []Flag{{Name: "if-value"}}},
			{Name: "list", Usage: "list keys by prefix", ArgsUsage: "[PREFIX]", Flags: []Flag{{Name: "limit"}}},
		}},
		{Name: "counter", Usage: "durable atomic counter primitive", Commands: []Command{
			{Name: "add", Usage: "add a delta to a counter", ArgsUsage: "NAME DELTA", Flags: []Flag{{Name: "create"}}},
			{Name: "inc", Usage: "increment a counter by 1", ArgsUsage: "NAME", Flags: []Flag{{Name: "create"}}},
			{Name: "dec", Usage: "decrement a counter by 1", ArgsUsage: "NAME", Flags: []Flag{{Name: "create"}}},
			{Name: "get", Usage: "read a counter's value", ArgsUsage: "NAME"},
		}},
		{Name: "lock", Usage: "durable mutual-exclusion lock primitive", Commands: []Command{
			{Name: "acquire", Usage: "acquire a lock", ArgsUsage: "NAME OWNER", Flags: []Flag{{Name: "ttl"}, {Name: "wait"}}},
			{Name: "release", Usage: "release a held lock", ArgsUsage: "NAME OWNER"},
			{Name: "extend", Usage: "extend a held lock's TTL", ArgsUsage: "NAME OWNER", Flags: []Flag{{Name: "ttl"}}},
			{Name: "check", Usage: "check a lock's current holder", ArgsUsage: "NAME"},
			{Name: "list", Usage: "enumerate held locks", Flags: []Flag{{Name: "limit"}}},
		}},
		{Name: "leader", Usage: "durable leader-election primitive", Commands: []Command{
			{Name: "elect", Usage: "attempt to become leader of a pool", ArgsUsage: "POOL ID", Flags: []Flag{{Name: "ttl"}}},
			{Name: "heartbeat", Usage: "renew leadership", ArgsUsage: "POOL ID", Flags: []Flag{{Name: "ttl"}}},
			{Name: "check", Usage: "check a pool's current leader", ArgsUsage: "POOL"},
			{Name: "resign", Usage: "resign leadership", ArgsUsage: "POOL ID"},
			{Name: "list", Usage: "enumerate active leader pools", Flags: []Flag{{Name: "limit"}}},
		}},
		{Name: "queue", Usage: "durable item-store work queue primitive", Commands: []Command{
			{Name: "push", Usage: "push a queue entry", ArgsUsage: "NAME BODY", Flags: []Flag{{Name: "priority"}, {Name: "dedup-id"}, {Name: "ttl"}}},
			{Name: "pop", Usage: "pop the next visible entry", ArgsUsage: "NAME", Flags: []Flag{{Name: "visibility-timeout"}}},
			{Name: "peek", Usage: "view upcoming entries without popping", ArgsUsage: "NAME", Flags: []Flag{{Name: "count"}}},
			{Name: "size", Usage: "count entries in a queue", ArgsUsage: "NAME"},
			{Name: "ack", Usage: "acknowledge and remove a popped entry", ArgsUsage: "NAME RECEIPT"},
			{Name: "redrive", Usage: "move over-received entries to a dead-letter queue", ArgsUsage: "NAME DLQ_NAME", Flags: []Flag{{Name: "max-receive-count"}}},
		}},
		{Name: "set", Usage: "durable unordered-set primitive", Commands: []Command{
			{Name: "add", Usage: "add a member", ArgsUsage: "NAME MEMBER"},
			{Name: "rem", Usage: "remove a member", ArgsUsage: "NAME MEMBER"},
			{Name: "is-member", Usage: "check membership", ArgsUsage: "NAME MEMBER"},
			{Name: "members", Usage: "list all members", ArgsUsage: "NAME"},
			{Name: "card", Usage: "count members", ArgsUsage: "NAME"},
		}},
		{Name: "list", Usage: "durable ordered-list primitive", Commands: []Command{
			{Name: "lpush", Usage: "push a value onto the head", ArgsUsage: "NAME VALUE"},
			{Name: "rpush", Usage: "push a value onto the tail", ArgsUsage: "NAME VALUE"},
			{Name: "lpop", Usage: "pop the head value", ArgsUsage: "NAME"},
			{Name: "rpop", Usage: "pop the tail value", ArgsUsage: "NAME"},
			{Name: "range", Usage: "read a range of the list", ArgsUsage: "NAME START STOP"},
		}},
		{Name: "transaction", Usage: "cross-primitive conditional batch", Commands: []Command{
			{Name: "execute", Usage: "execute a batch of operations from a JSON file", ArgsUsage: "FILE"},
		}},
		{Name: "blob", Usage: "object-store blob transfer/metadata primitive", Commands: []Command{
			{Name: "put", Usage: "upload a file", ArgsUsage: "LOCAL_PATH S3_URI", Flags: []Flag{{Name: "content-type"}, {Name: "if-not-exists"}, {Name: "if-match"}}},
			{Name: "get", Usage: "download an object", ArgsUsage: "S3_URI LOCAL_PATH", Flags: []Flag{{Name: "version-id"}}},
			{Name: "put-dir", Usage: "upload a directory tree", ArgsUsage: "LOCAL_DIR S3_URI", Flags: []Flag{{Name: "include"}, {Name: "exclude"}, {Name: "workers"}, {Name: "progress"}}},
			{Name: "get-dir", Usage: "download a prefix to a directory", ArgsUsage: "S3_URI LOCAL_DIR", Flags: []Flag{{Name: "include"}, {Name: "exclude"}, {Name: "workers"}, {Name: "progress"}}},
			{Name: "sync-up", Usage: "mirror a local directory to a prefix", ArgsUsage: "LOCAL_DIR S3_URI", Flags: []Flag{{Name: "delete"}, {Name: "size-only"}}},
			{Name: "sync-down", Usage: "mirror a prefix to a local directory", ArgsUsage: "S3_URI LOCAL_DIR", Flags: []Flag{{Name: "delete"}, {Name: "size-only"}}},
			{Name: "head", Usage: "read object metadata", ArgsUsage: "S3_URI", Flags: []Flag{{Name: "version-id"}}},
			{Name: "tag", Usage: "replace an object's tag set", ArgsUsage: "S3_URI"},
			{Name: "untag", Usage: "clear an object's tag set", ArgsUsage: "S3_URI"},
			{Name: "list-versions", Usage: "list an object's versions", ArgsUsage: "S3_URI", Flags: []Flag{{Name: "limit"}}},
			{Name: "presign", Usage: "presign a GET/PUT URL", ArgsUsage: "S3_URI", Flags: []Flag{{Name: "method"}, {Name: "expires-in"}}},
			{Name: "select", Usage: "run an S3 Select query", ArgsUsage: "S3_URI QUERY", Flags: []Flag{{Name: "input-format"}, {Name: "output-format"}}},
			{Name: "bucket", Usage: "bucket lifecycle (create|delete|enable-versioning)", ArgsUsage: "ACTION BUCKET"},
		}},
		{Name: "topic", Usage: "pub/sub fan-out contract (SNS)", Commands: []Command{
			{Name: "create", Usage: "create a topic", ArgsUsage: "NAME", Flags: []Flag{{Name: "ordered"}, {Name: "content-dedup"}}},
			{Name: "publish", Usage: "publish a message", ArgsUsage: "ARN BODY", Flags: []Flag{{Name: "group-id"}, {Name: "dedup-id"}, {Name: "subject"}}},
			{Name: "list", Usage: "list topics"},
			{Name: "delete", Usage: "delete a topic", ArgsUsage: "ARN"},
			{Name: "subscribe", Usage: "subscribe a queue to a topic", ArgsUsage: "TOPIC_ARN QUEUE_URL", Flags: []Flag{{Name: "raw-delivery"}, {Name: "filter-policy"}}},
		}},
		{Name: "mq", Usage: "managed message-queue contract (SQS)", Commands: []Command{
			{Name: "create", Usage: "create a queue", ArgsUsage: "NAME", Flags: []Flag{{Name: "ordered"}, {Name: "visibility-timeout"}, {Name: "retention"}, {Name: "dlq"}}},
			{Name: "send", Usage: "send a message", ArgsUsage: "QUEUE_URL BODY", Flags: []Flag{{Name: "group-id"}, {Name: "dedup-id"}, {Name: "delay"}}},
			{Name: "receive", Usage: "receive messages", ArgsUsage: "QUEUE_URL", Flags: []Flag{{Name: "max"}, {Name: "wait"}, {Name: "auto-delete"}}},
			{Name: "delete", Usage: "delete a received message", ArgsUsage: "QUEUE_URL RECEIPT"},
			{Name: "purge", Usage: "purge a queue", ArgsUsage: "QUEUE_URL"},
			{Name: "delete-queue", Usage: "delete a queue", ArgsUsage: "QUEUE_URL"},
		}},
		{Name: "table", Usage: "backing item-store table lifecycle", Commands: []Command{
			{Name: "create", Usage: "create the backing table", ArgsUsage: "NAME"},
			{Name: "describe", Usage: "describe the backing table", ArgsUsage: "NAME"},
			{Name: "delete", Usage: "delete the backing table", ArgsUsage: "NAME"},
		}},
	}
}

// Lookup returns the Command named by category/name, for completion and
// for help text consistency checks.
func Lookup(category, name string) (Command, bool) {
	for _, cat := range All() {
		if cat.Name != category {
			continue
		}
		for _, cmd := range cat.Commands {
			if cmd.Name == name {
				return cmd, true
			}
		}
	}
	return Command{}, false
}
