package stream

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"
)

// Publish delivers one named event to every open channel of the user.
// The payload is serialized once. A write failure on one channel removes
// that channel from the registry without aborting delivery to the rest.
// Returns true when at least one channel received the frame; false means
// the recipient is simply offline, which is not an error.
func (r *Registry) Publish(userID, event string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.WithError(err).WithField("event", event).Error("stream payload marshal failed")
		return false
	}
	return r.publishRaw(userID, event, data)
}

func (r *Registry) publishRaw(userID, event string, data []byte) bool {
	delivered := false
	for _, ch := range r.snapshot(userID) {
		if err := ch.Send(event, data); err != nil {
			r.logger.WithFields(log.Fields{"user": userID, "event": event}).WithError(err).Debug("dropping broken stream channel")
			ch.Close()
			r.Unregister(userID, ch)
			continue
		}
		delivered = true
	}
	return delivered
}

// Broadcast delivers the event to every channel of every registered user.
// Operational/debug use only; domain emissions always target specific
// recipients.
func (r *Registry) Broadcast(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.WithError(err).WithField("event", event).Error("stream payload marshal failed")
		return
	}
	r.mu.Lock()
	users := make([]string, 0, len(r.channels))
	for uid := range r.channels {
		users = append(users, uid)
	}
	r.mu.Unlock()
	for _, uid := range users {
		r.publishRaw(uid, event, data)
	}
}
