package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/theimaginaryfoundation/humor-o-meter/pipeline/fileutils"
)

// Oracle is the external text-scoring collaborator: free-text instruction in,
// free-text reply out. Implementations include CommandOracle (a blocking CLI
// invocation) and provider.HumorOracle (the OpenAI Responses API).
type Oracle interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// DefaultHumorScore is the neutral fallback used whenever the oracle fails or
// its reply yields no usable score.
const DefaultHumorScore = 5

// HumorScore asks the oracle to rate one message and returns a score in
// 1..10. Any oracle failure is absorbed here: the caller always gets a score,
// never an error, with failures logged and mapped to DefaultHumorScore.
func HumorScore(ctx context.Context, o Oracle, message, username string) int {
	reply, err := o.Respond(ctx, BuildHumorPrompt(message, username))
	if err != nil {
		slog.Warn("could not get humor score, using default",
			"error", err,
			"message", fileutils.Truncate(fileutils.SanitizeNewlines(message), 50))
		return DefaultHumorScore
	}
	return ExtractHumorScore(reply)
}

// BuildHumorPrompt embeds the message (and an attribution clause when the
// author is known) in the fixed scoring instruction.
func BuildHumorPrompt(message, username string) string {
	attribution := ""
	if username != "" {
		attribution = fmt.Sprintf(" by %s", username)
	}
	return fmt.Sprintf(`You are analyzing messages from a workplace Slack channel called "random phrase of the week" where colleagues share funny quotes, witty remarks, and humorous observations from their daily work interactions.

Please rate the following message on a scale from 1 to 10 based on how funny or amusing it is:
- 1-3: Not funny, mundane, or purely informational
- 4-6: Mildly amusing, decent workplace humor
- 7-8: Quite funny, would make most people chuckle
- 9-10: Hilarious, exceptional workplace humor

Message%s: "%s"

Please respond with just a single number from 1 to 10 representing the humor score.`, attribution, message)
}

// Score reply patterns, tried in order. Within a pattern the first occurrence
// in the text wins even when it is semantically not the "real" answer
// ("Between 3 and 8, I'd choose 7" yields 3); that imprecision is part of the
// contract and is preserved deliberately.
var humorScorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:score|rating):\s*(\d+)`), // "score: 7" / "rating: 8"
	regexp.MustCompile(`(\d+)\s*/\s*10`),            // "7/10" / "8 / 10"
	regexp.MustCompile(`(?:^|\s)(\d+)(?:\s|$)`),     // any standalone digit run
	regexp.MustCompile(`(\d+)\s*out\s*of\s*10`),     // "7 out of 10"
}

var humorScoreFallback = regexp.MustCompile(`\b([1-9]|10)\b`)

// ExtractHumorScore parses a free-text oracle reply for an integer score.
// Out-of-range extractions are discarded and the search falls through to the
// next pattern; when nothing usable is found the result is
// DefaultHumorScore.
func ExtractHumorScore(reply string) int {
	lowered := strings.ToLower(reply)
	for _, p := range humorScorePatterns {
		m := p.FindStringSubmatch(lowered)
		if m == nil {
			continue
		}
		score, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if score >= 1 && score <= 10 {
			return score
		}
	}
	if m := humorScoreFallback.FindStringSubmatch(reply); m != nil {
		score, err := strconv.Atoi(m[1])
		if err == nil {
			return score
		}
	}
	return DefaultHumorScore
}
