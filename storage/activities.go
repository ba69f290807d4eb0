package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"efficio-api/domain"
)

// Personal activities share a table with group activities; their partition
// is derived from the author instead of a group tag.
const personalPartitionPrefix = "user:"

type activityEntity struct {
	aztables.Entity
	UserID  string `json:"UserId"`
	Text    string `json:"Text"`
	Kind    string `json:"Kind"`
	Created int64  `json:"Created"`
}

func activityPartition(a domain.Activity) string {
	if a.GroupTag != "" {
		return a.GroupTag
	}
	return personalPartitionPrefix + a.UserID
}

func (e activityEntity) toDomain() domain.Activity {
	a := domain.Activity{
		ID:      e.RowKey,
		UserID:  e.UserID,
		Text:    e.Text,
		Kind:    e.Kind,
		Created: e.Created,
	}
	if len(e.PartitionKey) < len(personalPartitionPrefix) || e.PartitionKey[:len(personalPartitionPrefix)] != personalPartitionPrefix {
		a.GroupTag = e.PartitionKey
	}
	return a
}

// InsertActivity appends one activity record.
func (s *Storage) InsertActivity(ctx context.Context, a domain.Activity) error {
	ent := activityEntity{
		Entity:  aztables.Entity{PartitionKey: activityPartition(a), RowKey: a.ID},
		UserID:  a.UserID,
		Text:    a.Text,
		Kind:    a.Kind,
		Created: a.Created,
	}
	_, err := s.activities.AddEntity(ctx, marshalEntity(ent), nil)
	return err
}

// FetchGroupActivities lists the activity feed of one group.
func (s *Storage) FetchGroupActivities(ctx context.Context, groupTag string) ([]domain.Activity, error) {
	return s.fetchActivities(ctx, groupTag)
}

// FetchPersonalActivities lists the caller's non-grouped activities.
func (s *Storage) FetchPersonalActivities(ctx context.Context, userID string) ([]domain.Activity, error) {
	return s.fetchActivities(ctx, personalPartitionPrefix+userID)
}

func (s *Storage) fetchActivities(ctx context.Context, partition string) ([]domain.Activity, error) {
	filter := "PartitionKey eq '" + partition + "'"
	activities := []domain.Activity{}
	err := listAll(ctx, s.activities, filter, func(raw []byte) error {
		var ent activityEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		activities = append(activities, ent.toDomain())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activities, nil
}
