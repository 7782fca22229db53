package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Corpus is the merged working set from one export directory. Entries keeps
// the concatenation of every file's array; Replies indexes true replies by
// their parent's ts. Replies are located rather than silently discarded, but
// only thread parents make it into the output document.
type Corpus struct {
	Entries   []RawEntry
	Replies   map[string][]RawEntry
	FilesRead int
}

// LoadCorpus reads every *.json file in srcDir and merges them. Files are
// processed in lexicographic filename order so the working set is stable
// across filesystems. Each file must be a top-level JSON array of entries;
// anything else aborts the load.
func LoadCorpus(srcDir string) (Corpus, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return Corpus{}, fmt.Errorf("LoadCorpus: stat source dir: %w", err)
	}
	if !info.IsDir() {
		return Corpus{}, fmt.Errorf("LoadCorpus: %s is not a directory", srcDir)
	}

	// os.ReadDir returns entries sorted by filename.
	dirEntries, err := os.ReadDir(srcDir)
	if err != nil {
		return Corpus{}, fmt.Errorf("LoadCorpus: read source dir: %w", err)
	}

	c := Corpus{Replies: make(map[string][]RawEntry)}
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		path := filepath.Join(srcDir, de.Name())
		b, err := os.ReadFile(path)
		if err != nil {
			return Corpus{}, fmt.Errorf("LoadCorpus: read %s: %w", path, err)
		}
		var entries []RawEntry
		if err := json.Unmarshal(b, &entries); err != nil {
			return Corpus{}, fmt.Errorf("LoadCorpus: parse %s (expected a top-level array): %w", path, err)
		}
		c.Entries = append(c.Entries, entries...)
		c.FilesRead++
	}

	for _, e := range c.Entries {
		if !e.IsThreadParent() {
			c.Replies[e.ThreadTS] = append(c.Replies[e.ThreadTS], e)
		}
	}
	return c, nil
}

// Parents returns the thread parents (and standalone messages) in document
// order.
func (c Corpus) Parents() []RawEntry {
	var parents []RawEntry
	for _, e := range c.Entries {
		if e.IsThreadParent() {
			parents = append(parents, e)
		}
	}
	return parents
}

// ExtractOptions controls ExtractChats.
type ExtractOptions struct {
	// ScoreHumor requests synchronous inline humor scoring during
	// extraction. Oracle must be set when ScoreHumor is true.
	ScoreHumor bool
	Oracle     Oracle

	// StartDate/EndDate (YYYY-MM-DD, both optional) bound which messages
	// get an inline score. Records outside the window keep the absence
	// marker even though scoring was requested.
	StartDate string
	EndDate   string

	// Progress, if set, is called after each record is enriched (and
	// scored, when requested).
	Progress func(done, total int, r Record)
}

// ExtractResult summarizes one extraction run.
type ExtractResult struct {
	FilesRead      int
	EntriesSeen    int
	RepliesIndexed int
	Parents        int
	Scored         int
}

// ExtractChats runs the full extraction pipeline: load and merge the export
// directory, enrich every thread parent, optionally score inline, and write
// the document to dstPath. Any malformed file or entry aborts the whole run;
// this stage does not skip-and-continue.
func ExtractChats(ctx context.Context, srcDir, dstPath string, opts ExtractOptions) (ExtractResult, error) {
	if opts.ScoreHumor && opts.Oracle == nil {
		return ExtractResult{}, errors.New("ExtractChats: ScoreHumor requested but Oracle is nil")
	}

	c, err := LoadCorpus(srcDir)
	if err != nil {
		return ExtractResult{}, err
	}

	parents := c.Parents()
	res := ExtractResult{
		FilesRead:   c.FilesRead,
		EntriesSeen: len(c.Entries),
		Parents:     len(parents),
	}
	for _, replies := range c.Replies {
		res.RepliesIndexed += len(replies)
	}

	records := make([]Record, 0, len(parents))
	for i, e := range parents {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		rec, err := EnrichEntry(e)
		if err != nil {
			return res, fmt.Errorf("ExtractChats: %w", err)
		}

		if opts.ScoreHumor && strings.TrimSpace(rec.Message) != "" {
			t, err := time.ParseInLocation(datetimeLayout, rec.Datetime, time.Local)
			if err != nil {
				return res, fmt.Errorf("ExtractChats: parse datetime %q: %w", rec.Datetime, err)
			}
			within, err := withinDateRange(t, opts.StartDate, opts.EndDate)
			if err != nil {
				return res, fmt.Errorf("ExtractChats: %w", err)
			}
			if within {
				score := HumorScore(ctx, opts.Oracle, rec.Message, rec.Username)
				rec.QualityScoreFromLLM = &score
				res.Scored++
			}
		}

		records = append(records, rec)
		if opts.Progress != nil {
			opts.Progress(i+1, len(parents), rec)
		}
	}

	if err := SaveDocument(dstPath, records); err != nil {
		return res, fmt.Errorf("ExtractChats: %w", err)
	}
	return res, nil
}
