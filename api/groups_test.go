package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"efficio-api/domain"
)

func TestPostGroupValidatesTag(t *testing.T) {
	h := postGroup(newFakeStore(), staticAuth("owner-1"))

	for _, body := range []string{`{"tag":"team"}`, `{"tag":"@"}`, `{"tag":""}`} {
		rec, err := doRequest(h, http.MethodPost, "/api/groups", body, nil, nil)
		if err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestPostGroupCreatesOwnerMembership(t *testing.T) {
	store := newFakeStore()
	h := postGroup(store, staticAuth("owner-1"))

	rec, err := doRequest(h, http.MethodPost, "/api/groups", `{"tag":"@team","name":"Team"}`, nil, nil)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.groups["@team"].Owner != "owner-1" {
		t.Fatalf("unexpected group %+v", store.groups["@team"])
	}
	m := store.memberships[membershipKey("@team", "owner-1")]
	if m.Status != domain.MembershipAccepted {
		t.Fatalf("owner membership missing or wrong: %+v", m)
	}
}

func TestPostGroupTagTaken(t *testing.T) {
	store := newFakeStore()
	store.groups["@team"] = domain.Group{Tag: "@team", Owner: "somebody"}
	h := postGroup(store, staticAuth("owner-1"))

	rec, err := doRequest(h, http.MethodPost, "/api/groups", `{"tag":"@team"}`, nil, nil)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestPostInvitationOwnerOnly(t *testing.T) {
	store := newFakeStore()
	store.groups["@team"] = domain.Group{Tag: "@team", Owner: "owner-1"}
	h := postInvitation(store, staticAuth("member-1"), &fakeEvents{})

	rec, err := doRequest(h, http.MethodPost, "/api/groups/@team/invitations",
		`{"userId":"invitee-1"}`, nil, map[string]string{"tag": "@team"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestPostInvitationNotifiesInviteeOnly(t *testing.T) {
	store := newFakeStore()
	store.groups["@team"] = domain.Group{Tag: "@team", Name: "Team", Owner: "owner-1"}
	store.memberships[membershipKey("@team", "owner-1")] = domain.Membership{
		GroupTag: "@team", UserID: "owner-1", Status: domain.MembershipAccepted,
	}
	events := &fakeEvents{}
	h := postInvitation(store, staticAuth("owner-1"), events)

	rec, err := doRequest(h, http.MethodPost, "/api/groups/@team/invitations",
		`{"userId":"invitee-1"}`, nil, map[string]string{"tag": "@team"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	m := store.memberships[membershipKey("@team", "invitee-1")]
	if m.Status != domain.MembershipPending || m.InvitedBy != "owner-1" {
		t.Fatalf("unexpected membership %+v", m)
	}

	got := events.byKind(domain.EventNotification)
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if aff := got[0].ev.Affected; len(aff) != 1 || aff[0] != "invitee-1" {
		t.Fatalf("invitation must target the invitee only, got %v", aff)
	}
}

func TestPostInvitationAlreadyInvited(t *testing.T) {
	store := newFakeStore()
	store.groups["@team"] = domain.Group{Tag: "@team", Owner: "owner-1"}
	store.memberships[membershipKey("@team", "invitee-1")] = domain.Membership{
		GroupTag: "@team", UserID: "invitee-1", Status: domain.MembershipPending,
	}
	h := postInvitation(store, staticAuth("owner-1"), &fakeEvents{})

	rec, err := doRequest(h, http.MethodPost, "/api/groups/@team/invitations",
		`{"userId":"invitee-1"}`, nil, map[string]string{"tag": "@team"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRespondInvitationAccept(t *testing.T) {
	store := newFakeStore()
	store.groups["@team"] = domain.Group{Tag: "@team", Owner: "owner-1"}
	store.memberships[membershipKey("@team", "invitee-1")] = domain.Membership{
		GroupTag: "@team", UserID: "invitee-1", Status: domain.MembershipPending,
	}
	events := &fakeEvents{}
	h := respondInvitation(store, staticAuth("invitee-1"), events)

	rec, err := doRequest(h, http.MethodPost, "/api/groups/@team/invitations/respond",
		`{"accept":true}`, nil, map[string]string{"tag": "@team"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var m domain.Membership
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if m.Status != domain.MembershipAccepted {
		t.Fatalf("expected accepted, got %q", m.Status)
	}

	// The owner hears about the outcome.
	got := events.byKind(domain.EventNotification)
	if len(got) != 1 || got[0].ev.Affected[0] != "owner-1" {
		t.Fatalf("expected owner notification, got %+v", got)
	}
	if len(store.notifications) != 1 || store.notifications[0].Kind != "invitation_accepted" {
		t.Fatalf("unexpected notifications %+v", store.notifications)
	}
}

func TestRespondInvitationAlreadyResolved(t *testing.T) {
	store := newFakeStore()
	store.groups["@team"] = domain.Group{Tag: "@team", Owner: "owner-1"}
	store.memberships[membershipKey("@team", "invitee-1")] = domain.Membership{
		GroupTag: "@team", UserID: "invitee-1", Status: domain.MembershipAccepted,
	}
	h := respondInvitation(store, staticAuth("invitee-1"), &fakeEvents{})

	rec, err := doRequest(h, http.MethodPost, "/api/groups/@team/invitations/respond",
		`{"accept":true}`, nil, map[string]string{"tag": "@team"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestGetMembersRequiresMembership(t *testing.T) {
	store := newFakeStore()
	store.groups["@team"] = domain.Group{Tag: "@team", Owner: "owner-1"}
	h := getMembers(store, staticAuth("stranger-1"))

	rec, err := doRequest(h, http.MethodGet, "/api/groups/@team/members", "", nil,
		map[string]string{"tag": "@team"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireMember(t *testing.T) {
	store := newFakeStore()
	store.groups["@team"] = domain.Group{Tag: "@team", Owner: "owner-1"}
	store.memberships[membershipKey("@team", "member-1")] = domain.Membership{
		GroupTag: "@team", UserID: "member-1", Status: domain.MembershipAccepted,
	}
	store.memberships[membershipKey("@team", "pending-1")] = domain.Membership{
		GroupTag: "@team", UserID: "pending-1", Status: domain.MembershipPending,
	}

	ctx := context.Background()
	if err := requireMember(ctx, store, "@team", "owner-1"); err != nil {
		t.Fatalf("owner rejected: %v", err)
	}
	if err := requireMember(ctx, store, "@team", "member-1"); err != nil {
		t.Fatalf("accepted member rejected: %v", err)
	}
	if err := requireMember(ctx, store, "@team", "pending-1"); err == nil {
		t.Fatal("pending member must be rejected")
	}
	if err := requireMember(ctx, store, "@team", "stranger-1"); err == nil {
		t.Fatal("stranger must be rejected")
	}
	if err := requireMember(ctx, store, "@nosuch", "owner-1"); err == nil {
		t.Fatal("missing group must be rejected")
	}
}
