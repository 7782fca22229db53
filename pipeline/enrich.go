package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	datetimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
)

// EnrichEntry turns one thread-parent entry into a Record. The humor score is
// left as the absence marker; scoring is a separate, explicitly requested
// step (see ExtractChats and AddHumorScores).
func EnrichEntry(e RawEntry) (Record, error) {
	t, err := entryTime(e.TS)
	if err != nil {
		return Record{}, fmt.Errorf("EnrichEntry: entry ts=%q user=%q: %w", e.TS, e.User, err)
	}

	var reactionTypes []string
	total := 0
	for _, r := range e.Reactions {
		reactionTypes = append(reactionTypes, r.Name)
		total += r.Count
	}

	username := ""
	if e.UserProfile != nil {
		username = e.UserProfile.RealName
	}

	return Record{
		MessageID:        e.TS,
		UserID:           e.User,
		Message:          e.Text,
		Username:         username,
		Datetime:         t.Format(datetimeLayout),
		ReactionType:     reactionTypes,
		NumberOfReaction: total,
		ReplyCount:       e.ReplyCount,
		MentionedUsers:   ExtractMentions(e.Text),
		Month:            t.Format("2006-01"),
		Week:             mondayOf(t).Format(dateLayout),
	}, nil
}

// entryTime converts an export `ts` value (unix seconds with sub-second
// precision, string-encoded) to local time. These timestamps double as
// message ids, so a value that doesn't parse means the entry is malformed,
// not merely unscorable.
func entryTime(ts string) (time.Time, error) {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return time.Unix(0, int64(math.Round(f*1e9))), nil
}

// mondayOf returns the Monday on or before t (ISO week start).
func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// withinDateRange reports whether t falls inside the optional inclusive
// [start, end] window. Bounds are YYYY-MM-DD strings compared at day
// granularity; an empty bound is open.
func withinDateRange(t time.Time, startDate, endDate string) (bool, error) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if startDate != "" {
		start, err := time.ParseInLocation(dateLayout, startDate, t.Location())
		if err != nil {
			return false, fmt.Errorf("parse start date %q: %w", startDate, err)
		}
		if day.Before(start) {
			return false, nil
		}
	}
	if endDate != "" {
		end, err := time.ParseInLocation(dateLayout, endDate, t.Location())
		if err != nil {
			return false, fmt.Errorf("parse end date %q: %w", endDate, err)
		}
		if day.After(end) {
			return false, nil
		}
	}
	return true, nil
}
