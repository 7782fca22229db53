package pipeline

// Record is one cleaned, enriched row per parent/standalone message.
//
// Nullable fields use nil as the explicit "no value" marker and are never
// omitted from the serialized form: downstream consumers rely on every field
// being present in every row, with JSON null standing in for absence. In
// particular `reaction_type` and `mentioned_users` are either nil or a
// non-empty ordered list, never an empty list.
type Record struct {
	MessageID        string   `json:"message_id"`
	UserID           string   `json:"user_id"`
	Message          string   `json:"message"`
	Username         string   `json:"username"`
	Datetime         string   `json:"datetime"`
	ReactionType     []string `json:"reaction_type"`
	NumberOfReaction int      `json:"number_of_reaction"`
	ReplyCount       int      `json:"reply_count"`
	MentionedUsers   []string `json:"mentioned_users"`
	Month            string   `json:"month"`
	Week             string   `json:"week"`

	// QualityScoreFromLLM is set once by a scoring pass (inline or
	// incremental) and never overwritten afterwards.
	QualityScoreFromLLM *int `json:"quality_score_from_llm"`
}

// HasScore reports whether the record already carries a concrete humor score.
func (r Record) HasScore() bool {
	return r.QualityScoreFromLLM != nil
}
