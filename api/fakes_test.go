package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"efficio-api/domain"
	"efficio-api/notify"
	"efficio-api/storage"
)

// staticAuth resolves every authorized request to a fixed user ID.
type staticAuth string

func (a staticAuth) UserIDFromAuthHeader(h string) (string, error) {
	if h == "" {
		return "", errMissingAuthorization
	}
	return string(a), nil
}

type emittedEvent struct {
	ev      notify.Event
	actorID string
}

type fakeEvents struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (f *fakeEvents) Emit(ev notify.Event, actorID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{ev, actorID})
}

func (f *fakeEvents) byKind(kind string) []emittedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emittedEvent
	for _, e := range f.events {
		if e.ev.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fakeDeduper struct {
	seen map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: make(map[string]bool)}
}

func (f *fakeDeduper) Add(_ context.Context, userID, key string) (bool, error) {
	k := userID + ":" + key
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

func (f *fakeDeduper) Remove(_ context.Context, userID, key string) error {
	delete(f.seen, userID+":"+key)
	return nil
}

// fakeStore is an in-memory Storage used by handler tests.
type fakeStore struct {
	tasks         map[string]domain.Task
	users         map[string]domain.UserProfile
	groups        map[string]domain.Group
	memberships   map[string]domain.Membership
	activities    []domain.Activity
	notifications []domain.Notification
	timeEntries   []domain.TimeEntry

	err error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:       make(map[string]domain.Task),
		users:       make(map[string]domain.UserProfile),
		groups:      make(map[string]domain.Group),
		memberships: make(map[string]domain.Membership),
	}
}

func membershipKey(tag, userID string) string { return tag + "/" + userID }

func (s *fakeStore) FetchTasks(_ context.Context, userID string) ([]domain.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Task
	for _, t := range s.tasks {
		if t.Owner == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) GetTask(_ context.Context, owner, taskID string) (domain.Task, error) {
	if s.err != nil {
		return domain.Task{}, s.err
	}
	t, ok := s.tasks[taskID]
	if !ok || t.Owner != owner {
		return domain.Task{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *fakeStore) UpsertTask(_ context.Context, t domain.Task) error {
	if s.err != nil {
		return s.err
	}
	s.tasks[t.ID] = t
	return nil
}

func (s *fakeStore) DeleteTask(_ context.Context, owner, taskID string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.tasks, taskID)
	return nil
}

func (s *fakeStore) GetUser(_ context.Context, userID string) (domain.UserProfile, error) {
	if s.err != nil {
		return domain.UserProfile{}, s.err
	}
	u, ok := s.users[userID]
	if !ok {
		return domain.UserProfile{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) ProvisionUser(_ context.Context, u domain.UserProfile) (domain.UserProfile, error) {
	if s.err != nil {
		return domain.UserProfile{}, s.err
	}
	if stored, ok := s.users[u.ID]; ok {
		return stored, nil
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeStore) UpdateUser(_ context.Context, u domain.UserProfile) error {
	if s.err != nil {
		return s.err
	}
	s.users[u.ID] = u
	return nil
}

func (s *fakeStore) CreateGroup(_ context.Context, g domain.Group) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.groups[g.Tag]; ok {
		return storage.ErrConflict
	}
	s.groups[g.Tag] = g
	return nil
}

func (s *fakeStore) GetGroup(_ context.Context, tag string) (domain.Group, error) {
	if s.err != nil {
		return domain.Group{}, s.err
	}
	g, ok := s.groups[tag]
	if !ok {
		return domain.Group{}, storage.ErrNotFound
	}
	return g, nil
}

func (s *fakeStore) UpsertMembership(_ context.Context, m domain.Membership) error {
	if s.err != nil {
		return s.err
	}
	s.memberships[membershipKey(m.GroupTag, m.UserID)] = m
	return nil
}

func (s *fakeStore) GetMembership(_ context.Context, groupTag, userID string) (domain.Membership, error) {
	if s.err != nil {
		return domain.Membership{}, s.err
	}
	m, ok := s.memberships[membershipKey(groupTag, userID)]
	if !ok {
		return domain.Membership{}, storage.ErrNotFound
	}
	return m, nil
}

func (s *fakeStore) FetchMembers(_ context.Context, groupTag, status string) ([]domain.Membership, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Membership
	for _, m := range s.memberships {
		if m.GroupTag == groupTag && (status == "" || m.Status == status) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) FetchUserGroups(_ context.Context, userID string) ([]domain.Membership, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Membership
	for _, m := range s.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) InsertActivity(_ context.Context, a domain.Activity) error {
	if s.err != nil {
		return s.err
	}
	s.activities = append(s.activities, a)
	return nil
}

func (s *fakeStore) FetchGroupActivities(_ context.Context, groupTag string) ([]domain.Activity, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Activity
	for _, a := range s.activities {
		if a.GroupTag == groupTag {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) FetchPersonalActivities(_ context.Context, userID string) ([]domain.Activity, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Activity
	for _, a := range s.activities {
		if a.GroupTag == "" && a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) InsertNotification(_ context.Context, n domain.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *fakeStore) FetchNotifications(_ context.Context, userID string) ([]domain.Notification, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteNotification(_ context.Context, userID, id string) error {
	if s.err != nil {
		return s.err
	}
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.UserID == userID && n.ID == id {
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	return nil
}

func (s *fakeStore) DeleteTaskNotifications(_ context.Context, userID, taskID string) error {
	if s.err != nil {
		return s.err
	}
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.UserID == userID && n.TaskID == taskID {
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	return nil
}

func (s *fakeStore) UpsertTimeEntry(_ context.Context, e domain.TimeEntry) error {
	if s.err != nil {
		return s.err
	}
	for i, existing := range s.timeEntries {
		if existing.ID == e.ID {
			s.timeEntries[i] = e
			return nil
		}
	}
	s.timeEntries = append(s.timeEntries, e)
	return nil
}

func (s *fakeStore) FetchTimeEntries(_ context.Context, userID string) ([]domain.TimeEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.TimeEntry
	for _, e := range s.timeEntries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) ActiveTimeEntry(_ context.Context, userID string) (domain.TimeEntry, error) {
	if s.err != nil {
		return domain.TimeEntry{}, s.err
	}
	for _, e := range s.timeEntries {
		if e.UserID == userID && e.Running() {
			return e, nil
		}
	}
	return domain.TimeEntry{}, storage.ErrNotFound
}

// doRequest drives a handler through a fresh Echo context and returns the
// recorder.
func doRequest(h echo.HandlerFunc, method, target, body string, header http.Header, params map[string]string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer test")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		values := make([]string, 0, len(params))
		for k, v := range params {
			names = append(names, k)
			values = append(values, v)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return rec, h(c)
}
