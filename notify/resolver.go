package notify

import (
	"context"

	"efficio-api/domain"
)

// Resolver answers "who is entitled to see this event" from durable group
// membership and task assignment state. Implemented by the storage layer;
// the emitter never caches its answers.
type Resolver interface {
	// GroupRecipients returns the accepted members of the group, including
	// its owner.
	GroupRecipients(ctx context.Context, groupTag string) ([]string, error)
	// TaskRecipients returns the task's owner plus its current assignees.
	TaskRecipients(ctx context.Context, task domain.Task) ([]string, error)
	// GroupOwner returns the owning identity of the group, or empty when the
	// group does not exist.
	GroupOwner(ctx context.Context, groupTag string) (string, error)
	// ActorProfile returns the current stored profile of the acting user.
	ActorProfile(ctx context.Context, userID string) (domain.UserProfile, error)
}
