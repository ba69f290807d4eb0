package domain

// TimeEntry tracks time spent on a task. Stopped is zero while the entry is
// still running; at most one entry per user may be running at a time.
type TimeEntry struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	TaskID  string `json:"taskId,omitempty"`
	Note    string `json:"note,omitempty"`
	Started int64  `json:"started"`
	Stopped int64  `json:"stopped,omitempty"`
}

// Running reports whether the entry is still open.
func (e TimeEntry) Running() bool { return e.Stopped == 0 }
