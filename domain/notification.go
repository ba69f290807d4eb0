package domain

// Notification is a durable per-user notice, e.g. a task assignment or a
// group invitation. The push event carrying it is best-effort; this record
// is the source of truth.
type Notification struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Kind     string `json:"kind"`
	TaskID   string `json:"taskId,omitempty"`
	GroupTag string `json:"groupTag,omitempty"`
	Message  string `json:"message,omitempty"`
	Created  int64  `json:"created"`
}
