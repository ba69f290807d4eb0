package notify

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"efficio-api/domain"
)

const (
	emitTimeout  = 10 * time.Second
	emitSpanName = "notify.emit"
	tracerName   = "efficio-api/notify"
)

// Publisher pushes one event to every open channel of a user.
// Implemented by the stream registry.
type Publisher interface {
	Publish(userID, event string, payload any) bool
}

// DigestQueue receives copies of durable notifications for the daily digest
// worker. Enqueue failures never affect emission.
type DigestQueue interface {
	EnqueueDigest(ctx context.Context, userID string, notification domain.Notification) error
}

// Event describes one domain mutation eligible for push notification.
// Exactly the fields needed to resolve recipients and shape the payload are
// set, depending on Kind.
type Event struct {
	Kind     string
	GroupTag string

	Task         *domain.Task
	Activity     *domain.Activity
	Notification *domain.Notification

	// Affected lists the identities gaining or losing a task for the
	// notification kinds; each one receives its own event.
	Affected []string
}

// Emitter turns one domain mutation into zero or more per-recipient pushes.
// Emission is best-effort: every failure is caught here and logged, never
// surfaced to the CRUD request that triggered it.
type Emitter struct {
	resolver Resolver
	pub      Publisher
	digests  DigestQueue
	logger   *log.Logger
	timeout  time.Duration
}

// NewEmitter wires the emitter. digests may be nil when no digest queue is
// configured.
func NewEmitter(resolver Resolver, pub Publisher, digests DigestQueue, logger *log.Logger) *Emitter {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Emitter{
		resolver: resolver,
		pub:      pub,
		digests:  digests,
		logger:   logger,
		timeout:  emitTimeout,
	}
}

// Emit is fire-and-forget: it returns immediately and the emission runs on a
// detached goroutine behind a recover boundary. Callers respond to their own
// HTTP request without waiting for any push side effects.
func (e *Emitter) Emit(ev Event, actorID string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.WithFields(log.Fields{"kind": ev.Kind, "actor": actorID}).
					Errorf("emit panic recovered: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		e.emit(ctx, ev, actorID)
	}()
}

func (e *Emitter) emit(ctx context.Context, ev Event, actorID string) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, emitSpanName, trace.WithAttributes(
		attribute.String("efficio.event.kind", ev.Kind),
	))
	defer span.End()

	recipients, err := e.recipients(ctx, ev)
	if err != nil {
		span.SetStatus(codes.Error, "resolve recipients")
		span.RecordError(err)
		e.logger.WithFields(log.Fields{"kind": ev.Kind, "actor": actorID}).
			WithError(err).Error("recipient resolution failed, emission abandoned")
		return
	}
	// An actor never receives a push for their own action; the CRUD response
	// already carried the result back synchronously.
	recipients = dedupeExcluding(recipients, actorID)
	span.SetAttributes(attribute.Int("efficio.event.recipients", len(recipients)))
	if len(recipients) == 0 {
		span.SetStatus(codes.Ok, "")
		return
	}

	actor, err := e.resolver.ActorProfile(ctx, actorID)
	if err != nil {
		span.SetStatus(codes.Error, "actor profile")
		span.RecordError(err)
		e.logger.WithFields(log.Fields{"kind": ev.Kind, "actor": actorID}).
			WithError(err).Error("actor lookup failed, emission abandoned")
		return
	}

	owner := ""
	if ev.GroupTag != "" {
		owner, err = e.resolver.GroupOwner(ctx, ev.GroupTag)
		if err != nil {
			// Treated as "no owner exception": recipients fall back to the
			// default projection.
			e.logger.WithFields(log.Fields{"kind": ev.Kind, "group": ev.GroupTag}).
				WithError(err).Warn("group owner lookup failed")
			owner = ""
		}
	}

	delivered := 0
	for _, uid := range recipients {
		payload := e.payload(ev)
		payload["actor"] = projectActor(actor, owner != "" && uid == owner)
		if e.pub.Publish(uid, ev.Kind, payload) {
			delivered++
		}
	}
	span.SetAttributes(attribute.Int("efficio.event.delivered", delivered))
	span.SetStatus(codes.Ok, "")

	e.enqueueDigest(ctx, ev)
}

// recipients computes the raw recipient set per event kind. The actor may
// still be present here; emit strips it.
func (e *Emitter) recipients(ctx context.Context, ev Event) ([]string, error) {
	switch ev.Kind {
	case domain.EventActivity:
		if ev.GroupTag == "" {
			// Personal activity: nobody but the actor could see it, and the
			// actor is always excluded.
			return nil, nil
		}
		return e.resolver.GroupRecipients(ctx, ev.GroupTag)
	case domain.EventNotification, domain.EventNotificationRemoved:
		return append([]string(nil), ev.Affected...), nil
	case domain.EventTaskUpdated, domain.EventTaskDeleted:
		if ev.Task == nil {
			return nil, fmt.Errorf("event %q without task subject", ev.Kind)
		}
		return e.resolver.TaskRecipients(ctx, *ev.Task)
	default:
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

// payload builds the recipient-independent part of the frame. A fresh map is
// returned per call so the per-recipient actor projection never leaks across
// recipients.
func (e *Emitter) payload(ev Event) map[string]any {
	p := make(map[string]any, 3)
	switch {
	case ev.Activity != nil:
		p["activity"] = ev.Activity
	case ev.Notification != nil:
		p["notification"] = ev.Notification
	case ev.Task != nil:
		p["task"] = ev.Task
	}
	if ev.GroupTag != "" {
		p["groupTag"] = ev.GroupTag
	}
	return p
}

func (e *Emitter) enqueueDigest(ctx context.Context, ev Event) {
	if e.digests == nil || ev.Notification == nil || ev.Kind != domain.EventNotification {
		return
	}
	if err := e.digests.EnqueueDigest(ctx, ev.Notification.UserID, *ev.Notification); err != nil {
		e.logger.WithError(err).WithField("user", ev.Notification.UserID).
			Warn("digest enqueue failed")
	}
}

func dedupeExcluding(ids []string, exclude string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
