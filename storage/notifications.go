package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"efficio-api/domain"
)

type notificationEntity struct {
	aztables.Entity
	Kind     string `json:"Kind"`
	TaskID   string `json:"TaskId"`
	GroupTag string `json:"GroupTag"`
	Message  string `json:"Message"`
	Created  int64  `json:"Created"`
}

func (e notificationEntity) toDomain() domain.Notification {
	return domain.Notification{
		ID:       e.RowKey,
		UserID:   e.PartitionKey,
		Kind:     e.Kind,
		TaskID:   e.TaskID,
		GroupTag: e.GroupTag,
		Message:  e.Message,
		Created:  e.Created,
	}
}

// InsertNotification stores a durable notification for one user.
func (s *Storage) InsertNotification(ctx context.Context, n domain.Notification) error {
	ent := notificationEntity{
		Entity:   aztables.Entity{PartitionKey: n.UserID, RowKey: n.ID},
		Kind:     n.Kind,
		TaskID:   n.TaskID,
		GroupTag: n.GroupTag,
		Message:  n.Message,
		Created:  n.Created,
	}
	_, err := s.notifications.AddEntity(ctx, marshalEntity(ent), nil)
	return err
}

// FetchNotifications lists the user's notifications.
func (s *Storage) FetchNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	filter := "PartitionKey eq '" + userID + "'"
	notifications := []domain.Notification{}
	err := listAll(ctx, s.notifications, filter, func(raw []byte) error {
		var ent notificationEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		notifications = append(notifications, ent.toDomain())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// DeleteNotification dismisses one notification. Missing records are
// tolerated so dismiss is idempotent.
func (s *Storage) DeleteNotification(ctx context.Context, userID, id string) error {
	if _, err := s.notifications.DeleteEntity(ctx, userID, id, nil); err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// DeleteTaskNotifications removes every notification referencing a task,
// used when the task itself is deleted.
func (s *Storage) DeleteTaskNotifications(ctx context.Context, userID, taskID string) error {
	filter := "PartitionKey eq '" + userID + "' and TaskId eq '" + taskID + "'"
	ids := []string{}
	err := listAll(ctx, s.notifications, filter, func(raw []byte) error {
		var ent notificationEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		ids = append(ids, ent.RowKey)
		return nil
	})
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.DeleteNotification(ctx, userID, id); err != nil {
			return err
		}
	}
	return nil
}
