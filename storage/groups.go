package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"efficio-api/domain"
)

const groupsPartition = "group"

type groupEntity struct {
	aztables.Entity
	Name    string `json:"Name"`
	Owner   string `json:"Owner"`
	Created int64  `json:"Created"`
}

type memberEntity struct {
	aztables.Entity
	Status    string `json:"Status"`
	InvitedBy string `json:"InvitedBy"`
	Updated   int64  `json:"Updated"`
}

func (e groupEntity) toDomain() domain.Group {
	return domain.Group{Tag: e.RowKey, Name: e.Name, Owner: e.Owner, Created: e.Created}
}

func (e memberEntity) toDomain() domain.Membership {
	return domain.Membership{
		GroupTag:  e.PartitionKey,
		UserID:    e.RowKey,
		Status:    e.Status,
		InvitedBy: e.InvitedBy,
		Updated:   e.Updated,
	}
}

// CreateGroup inserts a new group; the tag must be unused.
func (s *Storage) CreateGroup(ctx context.Context, g domain.Group) error {
	ent := groupEntity{
		Entity:  aztables.Entity{PartitionKey: groupsPartition, RowKey: g.Tag},
		Name:    g.Name,
		Owner:   g.Owner,
		Created: g.Created,
	}
	if _, err := s.groups.AddEntity(ctx, marshalEntity(ent), nil); err != nil {
		if isConflict(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// GetGroup loads a group by tag.
func (s *Storage) GetGroup(ctx context.Context, tag string) (domain.Group, error) {
	resp, err := s.groups.GetEntity(ctx, groupsPartition, tag, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Group{}, ErrNotFound
		}
		return domain.Group{}, err
	}
	var ent groupEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Group{}, err
	}
	return ent.toDomain(), nil
}

// UpsertMembership writes the membership record for one user in one group.
func (s *Storage) UpsertMembership(ctx context.Context, m domain.Membership) error {
	ent := memberEntity{
		Entity:    aztables.Entity{PartitionKey: m.GroupTag, RowKey: m.UserID},
		Status:    m.Status,
		InvitedBy: m.InvitedBy,
		Updated:   m.Updated,
	}
	_, err := s.members.UpsertEntity(ctx, marshalEntity(ent), nil)
	return err
}

// GetMembership loads one user's membership in one group.
func (s *Storage) GetMembership(ctx context.Context, groupTag, userID string) (domain.Membership, error) {
	resp, err := s.members.GetEntity(ctx, groupTag, userID, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Membership{}, ErrNotFound
		}
		return domain.Membership{}, err
	}
	var ent memberEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Membership{}, err
	}
	return ent.toDomain(), nil
}

// FetchMembers lists the group's memberships, optionally filtered by status.
func (s *Storage) FetchMembers(ctx context.Context, groupTag, status string) ([]domain.Membership, error) {
	filter := "PartitionKey eq '" + groupTag + "'"
	if status != "" {
		filter += " and Status eq '" + status + "'"
	}
	members := []domain.Membership{}
	err := listAll(ctx, s.members, filter, func(raw []byte) error {
		var ent memberEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		members = append(members, ent.toDomain())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// FetchUserGroups lists every group the user owns or has an accepted or
// pending membership in. Membership rows are keyed by group, so this scans
// by RowKey; group counts are small enough that the cross-partition query is
// acceptable.
func (s *Storage) FetchUserGroups(ctx context.Context, userID string) ([]domain.Membership, error) {
	filter := "RowKey eq '" + userID + "'"
	members := []domain.Membership{}
	err := listAll(ctx, s.members, filter, func(raw []byte) error {
		var ent memberEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		members = append(members, ent.toDomain())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}
