package pipeline

// RawEntry is one message or reply from a Slack channel export file.
// `ts` doubles as the unique message id; `thread_ts` is present on anything
// that belongs to a thread and equals the parent's `ts` for the parent itself
// and for every reply.
type RawEntry struct {
	TS          string       `json:"ts"`
	ThreadTS    string       `json:"thread_ts,omitempty"`
	Text        string       `json:"text"`
	User        string       `json:"user"`
	UserProfile *UserProfile `json:"user_profile,omitempty"`
	Reactions   []Reaction   `json:"reactions,omitempty"`
	ReplyCount  int          `json:"reply_count,omitempty"`
}

// UserProfile carries the author display data we keep from the export.
type UserProfile struct {
	RealName string `json:"real_name"`
}

// Reaction is one emoji reaction row as exported by Slack.
type Reaction struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// IsThreadParent reports whether the entry starts a thread or stands alone.
// True replies carry a thread_ts that differs from their own ts.
func (e RawEntry) IsThreadParent() bool {
	return e.ThreadTS == "" || e.ThreadTS == e.TS
}
