package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"efficio-api/domain"
)

type taskEntity struct {
	aztables.Entity
	Title     string `json:"Title"`
	Notes     string `json:"Notes"`
	GroupTag  string `json:"GroupTag"`
	Assignees string `json:"Assignees"`
	Order     int    `json:"Order"`
	Done      bool   `json:"Done"`
	Updated   int64  `json:"Updated"`
}

func (e taskEntity) toDomain() domain.Task {
	t := domain.Task{
		ID:       e.RowKey,
		Title:    e.Title,
		Notes:    e.Notes,
		GroupTag: e.GroupTag,
		Owner:    e.PartitionKey,
		Order:    e.Order,
		Done:     e.Done,
		Updated:  e.Updated,
	}
	if e.Assignees != "" {
		_ = json.Unmarshal([]byte(e.Assignees), &t.Assignees)
	}
	return t
}

func taskToEntity(t domain.Task) taskEntity {
	assignees := ""
	if len(t.Assignees) > 0 {
		data, _ := json.Marshal(t.Assignees)
		assignees = string(data)
	}
	return taskEntity{
		Entity:    aztables.Entity{PartitionKey: t.Owner, RowKey: t.ID},
		Title:     t.Title,
		Notes:     t.Notes,
		GroupTag:  t.GroupTag,
		Assignees: assignees,
		Order:     t.Order,
		Done:      t.Done,
		Updated:   t.Updated,
	}
}

// FetchTasks retrieves all tasks owned by the provided user.
func (s *Storage) FetchTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + userID + "'"
	tasks := []domain.Task{}
	err := listAll(ctx, s.tasks, filter, func(raw []byte) error {
		var ent taskEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		tasks = append(tasks, ent.toDomain())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask loads a single task by owner and id.
func (s *Storage) GetTask(ctx context.Context, owner, taskID string) (domain.Task, error) {
	resp, err := s.tasks.GetEntity(ctx, owner, taskID, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	var ent taskEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Task{}, err
	}
	return ent.toDomain(), nil
}

// UpsertTask writes the task record, replacing any previous version.
func (s *Storage) UpsertTask(ctx context.Context, t domain.Task) error {
	_, err := s.tasks.UpsertEntity(ctx, marshalEntity(taskToEntity(t)), nil)
	return err
}

// DeleteTask removes the task record. Deleting a missing task is a no-op.
func (s *Storage) DeleteTask(ctx context.Context, owner, taskID string) error {
	if _, err := s.tasks.DeleteEntity(ctx, owner, taskID, nil); err != nil && !isNotFound(err) {
		return err
	}
	return nil
}
