package api

import (
	"context"

	"efficio-api/domain"
	"efficio-api/notify"
)

// TaskStore persists tasks.
type TaskStore interface {
	FetchTasks(ctx context.Context, userID string) ([]domain.Task, error)
	GetTask(ctx context.Context, owner, taskID string) (domain.Task, error)
	UpsertTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, owner, taskID string) error
}

// UserStore persists user profiles.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (domain.UserProfile, error)
	ProvisionUser(ctx context.Context, u domain.UserProfile) (domain.UserProfile, error)
	UpdateUser(ctx context.Context, u domain.UserProfile) error
}

// GroupStore persists groups and memberships.
type GroupStore interface {
	CreateGroup(ctx context.Context, g domain.Group) error
	GetGroup(ctx context.Context, tag string) (domain.Group, error)
	UpsertMembership(ctx context.Context, m domain.Membership) error
	GetMembership(ctx context.Context, groupTag, userID string) (domain.Membership, error)
	FetchMembers(ctx context.Context, groupTag, status string) ([]domain.Membership, error)
	FetchUserGroups(ctx context.Context, userID string) ([]domain.Membership, error)
}

// ActivityStore persists activity feed entries.
type ActivityStore interface {
	InsertActivity(ctx context.Context, a domain.Activity) error
	FetchGroupActivities(ctx context.Context, groupTag string) ([]domain.Activity, error)
	FetchPersonalActivities(ctx context.Context, userID string) ([]domain.Activity, error)
}

// NotificationStore persists durable notifications.
type NotificationStore interface {
	InsertNotification(ctx context.Context, n domain.Notification) error
	FetchNotifications(ctx context.Context, userID string) ([]domain.Notification, error)
	DeleteNotification(ctx context.Context, userID, id string) error
	DeleteTaskNotifications(ctx context.Context, userID, taskID string) error
}

// TimeEntryStore persists time-tracking records.
type TimeEntryStore interface {
	UpsertTimeEntry(ctx context.Context, e domain.TimeEntry) error
	FetchTimeEntries(ctx context.Context, userID string) ([]domain.TimeEntry, error)
	ActiveTimeEntry(ctx context.Context, userID string) (domain.TimeEntry, error)
}

// Storage abstracts persistence for handlers.
type Storage interface {
	TaskStore
	UserStore
	GroupStore
	ActivityStore
	NotificationStore
	TimeEntryStore
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents reprocessing of retried write requests.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
}

// Events receives fire-and-forget domain events for push emission. Handlers
// never wait on the side effects.
type Events interface {
	Emit(ev notify.Event, actorID string)
}
