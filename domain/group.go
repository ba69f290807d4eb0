package domain

const (
	MembershipPending  = "pending"
	MembershipAccepted = "accepted"
	MembershipDeclined = "declined"
)

// Group is a shared workspace identified by its tag, e.g. "@team".
type Group struct {
	Tag     string `json:"tag"`
	Name    string `json:"name"`
	Owner   string `json:"owner"`
	Created int64  `json:"created,omitempty"`
}

// Membership links a user to a group. Invitations are pending memberships.
type Membership struct {
	GroupTag  string `json:"groupTag"`
	UserID    string `json:"userId"`
	Status    string `json:"status"`
	InvitedBy string `json:"invitedBy,omitempty"`
	Updated   int64  `json:"updated,omitempty"`
}
