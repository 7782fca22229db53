package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/theimaginaryfoundation/humor-o-meter/pipeline/fileutils"
)

// DefaultMaxWorkers bounds the scoring pool when the caller doesn't.
const DefaultMaxWorkers = 10

// ScoreOptions controls AddHumorScores.
type ScoreOptions struct {
	// StartDate/EndDate (YYYY-MM-DD, both optional) restrict eligibility
	// to records whose datetime falls inside the inclusive window.
	StartDate string
	EndDate   string

	// MaxWorkers is the worker pool width (default DefaultMaxWorkers).
	MaxWorkers int

	// Progress, if set, is called once per scored record, after that
	// record's score has been persisted. Workers race, so events arrive in
	// completion order, not document order, and may be delivered from
	// multiple goroutines.
	Progress func(ev ScoreEvent)
}

// ScoreEvent reports one persisted score.
type ScoreEvent struct {
	Index   int // index of the record in the document
	Done    int // units completed so far, including this one
	Total   int // eligible units dispatched
	Score   int
	Preview string // truncated single-line message text
}

// ScoreResult summarizes one incremental scoring run.
type ScoreResult struct {
	TotalRecords int
	Eligible     int
	Scored       int
}

// SelectEligible returns the document indexes of records that still need a
// humor score: non-blank message, no concrete score yet, and inside the
// optional date window. Order follows the document. When a window is
// requested, records whose datetime is missing or unparseable are ineligible
// (they can't be shown to fall inside the window).
func SelectEligible(records []Record, startDate, endDate string) ([]int, error) {
	if startDate != "" {
		if _, err := time.ParseInLocation(dateLayout, startDate, time.Local); err != nil {
			return nil, fmt.Errorf("SelectEligible: parse start date %q: %w", startDate, err)
		}
	}
	if endDate != "" {
		if _, err := time.ParseInLocation(dateLayout, endDate, time.Local); err != nil {
			return nil, fmt.Errorf("SelectEligible: parse end date %q: %w", endDate, err)
		}
	}

	var eligible []int
	for i, r := range records {
		if r.HasScore() || strings.TrimSpace(r.Message) == "" {
			continue
		}
		if startDate != "" || endDate != "" {
			t, err := time.ParseInLocation(datetimeLayout, r.Datetime, time.Local)
			if err != nil {
				continue
			}
			within, err := withinDateRange(t, startDate, endDate)
			if err != nil {
				return nil, fmt.Errorf("SelectEligible: %w", err)
			}
			if !within {
				continue
			}
		}
		eligible = append(eligible, i)
	}
	return eligible, nil
}

// AddHumorScores scores every eligible record in the document at path,
// fanning the oracle calls out across a bounded worker pool and persisting
// the whole document after each individual score. The slow oracle call runs
// outside the lock; setting the score and rewriting the file happen inside
// one critical section per record, so concurrent completions can't interleave
// writes and a crash loses at most the one score in flight.
//
// A failure on one record (oracle trouble is already absorbed into the
// default score; a failed file write is logged) never aborts the pool or
// touches other records. Scores that are already concrete are left alone and
// cost no oracle calls, which makes repeated runs over the same document
// idempotent.
func AddHumorScores(ctx context.Context, path string, o Oracle, opts ScoreOptions) (ScoreResult, error) {
	if o == nil {
		return ScoreResult{}, fmt.Errorf("AddHumorScores: oracle is nil")
	}

	records, err := LoadDocument(path)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("AddHumorScores: %w", err)
	}

	eligible, err := SelectEligible(records, opts.StartDate, opts.EndDate)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("AddHumorScores: %w", err)
	}

	res := ScoreResult{TotalRecords: len(records), Eligible: len(eligible)}
	if len(eligible) == 0 {
		return res, nil
	}

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}

	var (
		mu     sync.Mutex
		scored int64
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, maxWorkers)

	for _, idx := range eligible {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				return
			default:
			}

			// Potentially seconds-slow; must not hold the lock.
			rec := records[idx]
			score := HumorScore(ctx, o, rec.Message, rec.Username)

			mu.Lock()
			if records[idx].QualityScoreFromLLM != nil {
				// Concrete scores are never overwritten.
				mu.Unlock()
				return
			}
			s := score
			records[idx].QualityScoreFromLLM = &s
			saveErr := SaveDocument(path, records)
			if saveErr != nil {
				// Keep the in-memory score; a later record's flush
				// will carry it to disk if the transient cause clears.
				mu.Unlock()
				slog.Warn("failed to persist humor score", "index", idx, "error", saveErr)
				return
			}
			mu.Unlock()

			done := atomic.AddInt64(&scored, 1)
			if opts.Progress != nil {
				opts.Progress(ScoreEvent{
					Index:   idx,
					Done:    int(done),
					Total:   len(eligible),
					Score:   score,
					Preview: fileutils.Truncate(fileutils.SanitizeNewlines(rec.Message), 50),
				})
			}
		}(idx)
	}

	wg.Wait()
	res.Scored = int(atomic.LoadInt64(&scored))
	return res, nil
}
