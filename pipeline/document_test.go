package pipeline

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	records := []Record{
		{
			MessageID:        "1712223336.000100",
			UserID:           "U001",
			Message:          "Hello <@U123456789> — приветик 👋",
			Username:         "Ada Example",
			Datetime:         "2024-04-04 11:35:36",
			ReactionType:     []string{"joy"},
			NumberOfReaction: 2,
			ReplyCount:       1,
			MentionedUsers:   []string{"U123456789"},
			Month:            "2024-04",
			Week:             "2024-04-01",
		},
		{MessageID: "1712223337.000200", Datetime: "2024-04-04 11:35:37"},
	}

	path := filepath.Join(t.TempDir(), "chat.json")
	if err := SaveDocument(path, records); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	got, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, records)
	}
}

func TestSaveDocument_KeepsMentionMarkupReadable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chat.json")
	err := SaveDocument(path, []Record{{Message: "hi <@U123456789> & friends — café ☕"}})
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "<@U123456789>") {
		t.Fatalf("mention markup escaped:\n%s", s)
	}
	if !strings.Contains(s, "café ☕") {
		t.Fatalf("non-ASCII escaped:\n%s", s)
	}
}

func TestSaveDocument_AbsentFieldsSerializeAsNull(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chat.json")
	if err := SaveDocument(path, []Record{{MessageID: "1"}}); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(b)
	// Field presence is stable: absence markers are nulls, never omissions.
	for _, field := range []string{`"reaction_type": null`, `"mentioned_users": null`, `"quality_score_from_llm": null`} {
		if !strings.Contains(s, field) {
			t.Fatalf("missing %s in:\n%s", field, s)
		}
	}
}

func TestLoadDocument_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chat.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadDocument(path); err == nil {
		t.Fatal("expected error")
	}
}
