package storage

import (
	"context"
	"errors"

	"efficio-api/domain"
)

// The methods below implement notify.Resolver: recipient sets are always
// computed fresh from durable membership and assignment state.

// GroupRecipients returns the accepted members of the group plus its owner.
func (s *Storage) GroupRecipients(ctx context.Context, groupTag string) ([]string, error) {
	group, err := s.GetGroup(ctx, groupTag)
	if err != nil {
		return nil, err
	}
	members, err := s.FetchMembers(ctx, groupTag, domain.MembershipAccepted)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(members)+1)
	seen := map[string]struct{}{group.Owner: {}}
	out = append(out, group.Owner)
	for _, m := range members {
		if _, ok := seen[m.UserID]; ok {
			continue
		}
		seen[m.UserID] = struct{}{}
		out = append(out, m.UserID)
	}
	return out, nil
}

// TaskRecipients returns the task's owner plus its current assignees.
func (s *Storage) TaskRecipients(_ context.Context, task domain.Task) ([]string, error) {
	return task.Recipients(), nil
}

// GroupOwner returns the owning identity of the group, or empty when the
// group does not exist.
func (s *Storage) GroupOwner(ctx context.Context, groupTag string) (string, error) {
	group, err := s.GetGroup(ctx, groupTag)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return group.Owner, nil
}

// ActorProfile returns the stored profile for the acting user. An
// unprovisioned actor yields a bare profile instead of an error so emission
// can still proceed with an id-only projection.
func (s *Storage) ActorProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.UserProfile{ID: userID}, nil
		}
		return domain.UserProfile{}, err
	}
	return u, nil
}
