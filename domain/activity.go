package domain

// Activity is a feed entry describing something a user did. Activities with
// an empty GroupTag are personal and never pushed to anyone else.
type Activity struct {
	ID       string `json:"id"`
	GroupTag string `json:"groupTag,omitempty"`
	UserID   string `json:"userId"`
	Text     string `json:"text"`
	Kind     string `json:"kind,omitempty"`
	Created  int64  `json:"created"`
}
