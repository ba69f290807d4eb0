package notify

import (
	"strings"

	"efficio-api/domain"
)

// ActorProjection is the privacy-filtered view of the acting user embedded
// in a pushed payload. The same event yields different projections per
// recipient.
type ActorProjection struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Initials string `json:"initials,omitempty"`
	Email    string `json:"email,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// projectActor applies the payload privacy policy:
//   - default: initials plus raw email, no display name, no picture
//   - group owners see the actor's real name (email fallback), still no picture
//   - an explicit custom picture is always included, for every recipient
func projectActor(actor domain.UserProfile, recipientIsOwner bool) ActorProjection {
	p := ActorProjection{
		ID:       actor.ID,
		Initials: initials(actor.Name, actor.Email),
		Email:    actor.Email,
	}
	if recipientIsOwner {
		if actor.Name != "" {
			p.Name = actor.Name
		} else {
			p.Name = actor.Email
		}
	}
	if actor.CustomPicture && actor.Picture != "" {
		p.Picture = actor.Picture
	}
	return p
}

// initials derives uppercase initials from the first letters of the first
// and last name token, falling back to the email local-part when the name
// is empty.
func initials(name, email string) string {
	src := name
	if src == "" {
		src = email
		if i := strings.IndexByte(src, '@'); i >= 0 {
			src = src[:i]
		}
	}
	src = strings.TrimSpace(strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(src))
	if src == "" {
		return ""
	}
	tokens := strings.Fields(src)
	first := []rune(tokens[0])
	out := string(first[0])
	if len(tokens) > 1 {
		last := []rune(tokens[len(tokens)-1])
		out += string(last[0])
	}
	return strings.ToUpper(out)
}
