package domain

// Push event names written to open client streams. Consumers treat every
// event as a "something changed, re-fetch" signal; no ordering or delivery
// guarantees are attached.
const (
	EventActivity            = "activity"
	EventNotification        = "notification"
	EventNotificationRemoved = "notification_removed"
	EventTaskUpdated         = "task_updated"
	EventTaskDeleted         = "task_deleted"
	EventConnected           = "connected"
)
