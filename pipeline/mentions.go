package pipeline

import "regexp"

// Slack user-mention syntax: <@U123456789>. The id is a capital U followed by
// uppercase alphanumerics; anything else inside the brackets is not a mention.
var mentionPattern = regexp.MustCompile(`<@U[A-Z0-9]+>`)

// ExtractMentions returns the ordered user ids mentioned in message, with the
// <@ > decoration stripped and duplicates preserved as they appear in the
// text. An empty message or a message with no mentions yields nil, not an
// empty list; callers and the output contract distinguish the two.
func ExtractMentions(message string) []string {
	if message == "" {
		return nil
	}
	matches := mentionPattern.FindAllString(message, -1)
	if len(matches) == 0 {
		return nil
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[2:len(m)-1])
	}
	return ids
}
