package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"efficio-api/domain"
)

type timeEntryEntity struct {
	aztables.Entity
	TaskID  string `json:"TaskId"`
	Note    string `json:"Note"`
	Started int64  `json:"Started"`
	Stopped int64  `json:"Stopped"`
}

func (e timeEntryEntity) toDomain() domain.TimeEntry {
	return domain.TimeEntry{
		ID:      e.RowKey,
		UserID:  e.PartitionKey,
		TaskID:  e.TaskID,
		Note:    e.Note,
		Started: e.Started,
		Stopped: e.Stopped,
	}
}

// UpsertTimeEntry writes one time-tracking record.
func (s *Storage) UpsertTimeEntry(ctx context.Context, e domain.TimeEntry) error {
	ent := timeEntryEntity{
		Entity:  aztables.Entity{PartitionKey: e.UserID, RowKey: e.ID},
		TaskID:  e.TaskID,
		Note:    e.Note,
		Started: e.Started,
		Stopped: e.Stopped,
	}
	_, err := s.timeEntries.UpsertEntity(ctx, marshalEntity(ent), nil)
	return err
}

// FetchTimeEntries lists the user's time entries.
func (s *Storage) FetchTimeEntries(ctx context.Context, userID string) ([]domain.TimeEntry, error) {
	filter := "PartitionKey eq '" + userID + "'"
	entries := []domain.TimeEntry{}
	err := listAll(ctx, s.timeEntries, filter, func(raw []byte) error {
		var ent timeEntryEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		entries = append(entries, ent.toDomain())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ActiveTimeEntry returns the user's running entry, or ErrNotFound when none
// is open.
func (s *Storage) ActiveTimeEntry(ctx context.Context, userID string) (domain.TimeEntry, error) {
	filter := "PartitionKey eq '" + userID + "' and Stopped eq 0L"
	var found *domain.TimeEntry
	err := listAll(ctx, s.timeEntries, filter, func(raw []byte) error {
		var ent timeEntryEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		entry := ent.toDomain()
		found = &entry
		return nil
	})
	if err != nil {
		return domain.TimeEntry{}, err
	}
	if found == nil {
		return domain.TimeEntry{}, ErrNotFound
	}
	return *found, nil
}
