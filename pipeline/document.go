package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/theimaginaryfoundation/humor-o-meter/pipeline/fileutils"
)

// LoadDocument reads a processed-chat JSON document (one Record per parent
// message). The document is the sole persistent store; there is no separate
// index or database.
func LoadDocument(path string) ([]Record, error) {
	if path == "" {
		return nil, errors.New("LoadDocument: path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadDocument: read file: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("LoadDocument: unmarshal %s: %w", path, err)
	}
	return records, nil
}

// SaveDocument atomically rewrites the whole document. Readers never see a
// partial write, which is what makes the per-score streaming persistence in
// AddHumorScores crash-safe.
func SaveDocument(path string, records []Record) error {
	if path == "" {
		return errors.New("SaveDocument: path is empty")
	}
	if err := fileutils.WriteJSONFileAtomic(path, records); err != nil {
		return fmt.Errorf("SaveDocument: %s: %w", path, err)
	}
	return nil
}
