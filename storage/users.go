package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"efficio-api/domain"
)

type userEntity struct {
	aztables.Entity
	Name          string `json:"Name"`
	Email         string `json:"Email"`
	Picture       string `json:"Picture"`
	CustomPicture bool   `json:"CustomPicture"`
}

func (e userEntity) toDomain() domain.UserProfile {
	return domain.UserProfile{
		ID:            e.RowKey,
		Name:          e.Name,
		Email:         e.Email,
		Picture:       e.Picture,
		CustomPicture: e.CustomPicture,
	}
}

func userToEntity(u domain.UserProfile) userEntity {
	return userEntity{
		Entity:        aztables.Entity{PartitionKey: usersPartition, RowKey: u.ID},
		Name:          u.Name,
		Email:         u.Email,
		Picture:       u.Picture,
		CustomPicture: u.CustomPicture,
	}
}

// GetUser loads a stored profile by identity.
func (s *Storage) GetUser(ctx context.Context, userID string) (domain.UserProfile, error) {
	resp, err := s.users.GetEntity(ctx, usersPartition, userID, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.UserProfile{}, ErrNotFound
		}
		return domain.UserProfile{}, err
	}
	var ent userEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.UserProfile{}, err
	}
	return ent.toDomain(), nil
}

// ProvisionUser creates the profile on first login. Concurrent first-login
// races are expected: the insert is attempted first, and on conflict the
// existing record wins for fields the incoming profile leaves empty.
func (s *Storage) ProvisionUser(ctx context.Context, u domain.UserProfile) (domain.UserProfile, error) {
	if _, err := s.users.AddEntity(ctx, marshalEntity(userToEntity(u)), nil); err == nil {
		return u, nil
	} else if !isConflict(err) {
		return domain.UserProfile{}, err
	}

	existing, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	merged := reconcileProfiles(existing, u)
	if _, err := s.users.UpsertEntity(ctx, marshalEntity(userToEntity(merged)), nil); err != nil {
		return domain.UserProfile{}, err
	}
	return merged, nil
}

// UpdateUser overwrites the stored profile. Setting a picture through this
// path marks it as explicitly customized.
func (s *Storage) UpdateUser(ctx context.Context, u domain.UserProfile) error {
	_, err := s.users.UpsertEntity(ctx, marshalEntity(userToEntity(u)), nil)
	return err
}

// reconcileProfiles keeps user-customized fields from the stored record and
// fills the gaps from the fresh identity-provider claims.
func reconcileProfiles(existing, incoming domain.UserProfile) domain.UserProfile {
	out := existing
	if out.Name == "" {
		out.Name = incoming.Name
	}
	if out.Email == "" {
		out.Email = incoming.Email
	}
	if !out.CustomPicture && incoming.Picture != "" {
		out.Picture = incoming.Picture
	}
	return out
}
