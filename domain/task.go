package domain

// Task represents a single work item owned by one user and optionally
// assigned to others.
type Task struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Notes     string   `json:"notes,omitempty"`
	GroupTag  string   `json:"groupTag,omitempty"`
	Owner     string   `json:"owner"`
	Assignees []string `json:"assignees,omitempty"`
	Order     int      `json:"order"`
	Done      bool     `json:"done,omitempty"`
	Updated   int64    `json:"updated,omitempty"`
}

// Recipients returns the owner plus all assignees, deduplicated.
func (t Task) Recipients() []string {
	seen := make(map[string]struct{}, len(t.Assignees)+1)
	out := make([]string, 0, len(t.Assignees)+1)
	if t.Owner != "" {
		seen[t.Owner] = struct{}{}
		out = append(out, t.Owner)
	}
	for _, a := range t.Assignees {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
