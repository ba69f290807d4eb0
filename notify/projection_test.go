package notify

import (
	"testing"

	"efficio-api/domain"
)

func TestInitials(t *testing.T) {
	cases := []struct {
		name  string
		email string
		want  string
	}{
		{"Jane Doe", "", "JD"},
		{"Jane", "", "J"},
		{"Jane Marie Doe", "", "JD"},
		{"", "jane.doe@example.com", "JD"},
		{"", "jane_doe@example.com", "JD"},
		{"", "jane-doe@example.com", "JD"},
		{"", "jane@example.com", "J"},
		{"", "", ""},
	}
	for _, tc := range cases {
		if got := initials(tc.name, tc.email); got != tc.want {
			t.Errorf("initials(%q, %q) = %q, want %q", tc.name, tc.email, got, tc.want)
		}
	}
}

func TestProjectActorDefault(t *testing.T) {
	actor := domain.UserProfile{
		ID:      "auth0|1",
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Picture: "https://idp.example/jane.png",
	}

	p := projectActor(actor, false)
	if p.Name != "" {
		t.Fatalf("non-owner recipient must not see the name, got %q", p.Name)
	}
	if p.Initials != "JD" {
		t.Fatalf("expected initials JD, got %q", p.Initials)
	}
	if p.Email != "jane@example.com" {
		t.Fatalf("expected email, got %q", p.Email)
	}
	if p.Picture != "" {
		t.Fatalf("provider picture must not leak, got %q", p.Picture)
	}
}

func TestProjectActorForOwner(t *testing.T) {
	actor := domain.UserProfile{ID: "auth0|1", Name: "Jane Doe", Email: "jane@example.com"}

	p := projectActor(actor, true)
	if p.Name != "Jane Doe" {
		t.Fatalf("owner sees the real name, got %q", p.Name)
	}

	actor.Name = ""
	p = projectActor(actor, true)
	if p.Name != "jane@example.com" {
		t.Fatalf("owner falls back to email when name is empty, got %q", p.Name)
	}
}

func TestProjectActorCustomPicture(t *testing.T) {
	actor := domain.UserProfile{
		ID:            "auth0|1",
		Email:         "jane@example.com",
		Picture:       "https://cdn.example/custom.png",
		CustomPicture: true,
	}

	for _, owner := range []bool{false, true} {
		p := projectActor(actor, owner)
		if p.Picture != actor.Picture {
			t.Fatalf("custom picture shown to every recipient, owner=%v got %q", owner, p.Picture)
		}
	}

	actor.Picture = ""
	if p := projectActor(actor, false); p.Picture != "" {
		t.Fatalf("empty picture must stay empty, got %q", p.Picture)
	}
}
