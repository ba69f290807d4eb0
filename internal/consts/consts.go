package consts

const (
	// TasksKeyPrefix prefixes Redis keys caching a user's task list.
	TasksKeyPrefix = "tasks:"
	// DedupKeyPrefix prefixes Redis keys recording processed idempotency keys.
	DedupKeyPrefix = "idem:"

	SSEEventPrefix = "event: "
	SSEDataPrefix  = "data: "
)
