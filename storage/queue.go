package storage

import (
	"context"
	"encoding/json"
	"errors"

	"efficio-api/domain"
)

type digestEnvelope struct {
	UserID       string              `json:"userId"`
	Notification domain.Notification `json:"notification"`
}

// EnqueueDigest hands a copy of a durable notification to the digest queue
// consumed by the daily summary worker.
func (s *Storage) EnqueueDigest(ctx context.Context, userID string, n domain.Notification) error {
	if s.digestQueue == nil {
		return errors.New("digest queue not configured")
	}
	data, err := json.Marshal(digestEnvelope{UserID: userID, Notification: n})
	if err != nil {
		return err
	}
	_, err = s.digestQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}
