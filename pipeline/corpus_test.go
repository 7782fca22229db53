package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeExportFile(t *testing.T, dir, name string, entries []RawEntry) {
	t.Helper()
	b, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadCorpus_MergesAndIndexesReplies(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	parentTS := tsFor(2024, time.March, 4, 9, 0, 0)
	replyTS := tsFor(2024, time.March, 4, 9, 5, 0)
	standaloneTS := tsFor(2024, time.March, 5, 10, 0, 0)

	writeExportFile(t, dir, "2024-03-04.json", []RawEntry{
		{TS: parentTS, ThreadTS: parentTS, Text: "parent", User: "U1", ReplyCount: 1},
	})
	// The reply lives in a different file than its parent.
	writeExportFile(t, dir, "2024-03-05.json", []RawEntry{
		{TS: replyTS, ThreadTS: parentTS, Text: "reply", User: "U2"},
		{TS: standaloneTS, Text: "standalone", User: "U3"},
	})
	// Non-JSON files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := LoadCorpus(dir)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if c.FilesRead != 2 {
		t.Fatalf("FilesRead=%d", c.FilesRead)
	}
	if len(c.Entries) != 3 {
		t.Fatalf("Entries=%d", len(c.Entries))
	}
	if len(c.Replies[parentTS]) != 1 || c.Replies[parentTS][0].Text != "reply" {
		t.Fatalf("Replies=%v", c.Replies)
	}

	parents := c.Parents()
	if len(parents) != 2 {
		t.Fatalf("parents=%d", len(parents))
	}
	if parents[0].Text != "parent" || parents[1].Text != "standalone" {
		t.Fatalf("parents=%q/%q", parents[0].Text, parents[1].Text)
	}
}

func TestLoadCorpus_LexicographicFileOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// Written out of order on purpose; merge order must follow filenames.
	writeExportFile(t, dir, "b.json", []RawEntry{{TS: tsFor(2024, time.May, 2, 8, 0, 0), Text: "second"}})
	writeExportFile(t, dir, "a.json", []RawEntry{{TS: tsFor(2024, time.May, 1, 8, 0, 0), Text: "first"}})

	c, err := LoadCorpus(dir)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if c.Entries[0].Text != "first" || c.Entries[1].Text != "second" {
		t.Fatalf("order=%q,%q", c.Entries[0].Text, c.Entries[1].Text)
	}
}

func TestLoadCorpus_MissingDir(t *testing.T) {
	t.Parallel()

	if _, err := LoadCorpus(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadCorpus_NotADir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadCorpus(path)
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("err=%v", err)
	}
}

func TestLoadCorpus_MalformedFileAborts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeExportFile(t, dir, "good.json", []RawEntry{{TS: tsFor(2024, time.May, 1, 8, 0, 0)}})
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"not":"an array"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadCorpus(dir)
	if err == nil || !strings.Contains(err.Error(), "broken.json") {
		t.Fatalf("err=%v", err)
	}
}

func TestExtractChats_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	parentTS := tsFor(2023, time.April, 4, 11, 35, 36)
	replyTS := tsFor(2023, time.April, 4, 12, 0, 0)
	writeExportFile(t, dir, "export.json", []RawEntry{
		{
			TS:          parentTS,
			ThreadTS:    parentTS,
			Text:        "Hello <@U123456789>, how are you?",
			User:        "U001",
			UserProfile: &UserProfile{RealName: "Ada Example"},
			Reactions:   []Reaction{{Name: "joy", Count: 2}},
			ReplyCount:  1,
		},
		{TS: replyTS, ThreadTS: parentTS, Text: "fine thanks", User: "U002"},
	})

	dst := filepath.Join(t.TempDir(), "processed", "chat.json")
	res, err := ExtractChats(context.Background(), dir, dst, ExtractOptions{})
	if err != nil {
		t.Fatalf("ExtractChats: %v", err)
	}
	if res.Parents != 1 || res.RepliesIndexed != 1 || res.EntriesSeen != 2 {
		t.Fatalf("res=%+v", res)
	}

	records, err := LoadDocument(dst)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records=%d", len(records))
	}
	rec := records[0]
	if rec.MessageID != parentTS || rec.UserID != "U001" || rec.Username != "Ada Example" {
		t.Fatalf("rec=%+v", rec)
	}
	if rec.Month != "2023-04" || rec.Week != "2023-04-03" {
		t.Fatalf("month=%q week=%q", rec.Month, rec.Week)
	}
	if rec.QualityScoreFromLLM != nil {
		t.Fatalf("score=%v, want nil without -humor-scores", rec.QualityScoreFromLLM)
	}
}

func TestExtractChats_InlineScoringHonorsDateWindow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeExportFile(t, dir, "export.json", []RawEntry{
		{TS: tsFor(2024, time.June, 1, 12, 0, 0), Text: "too early", User: "U1"},
		{TS: tsFor(2024, time.June, 15, 12, 0, 0), Text: "in window", User: "U2"},
		{TS: tsFor(2024, time.June, 30, 12, 0, 0), Text: "too late", User: "U3"},
		{TS: tsFor(2024, time.June, 16, 12, 0, 0), Text: "   ", User: "U4"}, // blank, never scored
	})

	oracle := &stubOracle{reply: "8/10"}
	dst := filepath.Join(t.TempDir(), "chat.json")
	res, err := ExtractChats(context.Background(), dir, dst, ExtractOptions{
		ScoreHumor: true,
		Oracle:     oracle,
		StartDate:  "2024-06-10",
		EndDate:    "2024-06-20",
	})
	if err != nil {
		t.Fatalf("ExtractChats: %v", err)
	}
	if res.Scored != 1 {
		t.Fatalf("Scored=%d", res.Scored)
	}
	if got := oracle.callCount(); got != 1 {
		t.Fatalf("oracle calls=%d", got)
	}

	records, err := LoadDocument(dst)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	for _, rec := range records {
		if rec.Message == "in window" {
			if rec.QualityScoreFromLLM == nil || *rec.QualityScoreFromLLM != 8 {
				t.Fatalf("in-window score=%v", rec.QualityScoreFromLLM)
			}
			continue
		}
		if rec.QualityScoreFromLLM != nil {
			t.Fatalf("%q score=%v, want nil", rec.Message, *rec.QualityScoreFromLLM)
		}
	}
}

func TestExtractChats_BadEntryAbortsRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeExportFile(t, dir, "export.json", []RawEntry{
		{TS: tsFor(2024, time.June, 1, 12, 0, 0), Text: "fine"},
		{TS: "garbage", Text: "broken"},
	})

	dst := filepath.Join(t.TempDir(), "chat.json")
	_, err := ExtractChats(context.Background(), dir, dst, ExtractOptions{})
	if err == nil || !strings.Contains(err.Error(), "garbage") {
		t.Fatalf("err=%v", err)
	}
	if _, statErr := os.Stat(dst); statErr == nil {
		t.Fatal("document written despite fatal extraction error")
	}
}

func TestExtractChats_ProgressSeesEveryParent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var entries []RawEntry
	for i := 0; i < 5; i++ {
		entries = append(entries, RawEntry{
			TS:   tsFor(2024, time.June, 1+i, 12, 0, 0),
			Text: fmt.Sprintf("message %d", i),
		})
	}
	writeExportFile(t, dir, "export.json", entries)

	var seen int
	dst := filepath.Join(t.TempDir(), "chat.json")
	_, err := ExtractChats(context.Background(), dir, dst, ExtractOptions{
		Progress: func(done, total int, r Record) {
			seen++
			if total != 5 {
				t.Errorf("total=%d", total)
			}
		},
	})
	if err != nil {
		t.Fatalf("ExtractChats: %v", err)
	}
	if seen != 5 {
		t.Fatalf("progress events=%d", seen)
	}
}
