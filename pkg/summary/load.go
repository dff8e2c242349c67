package summary

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load reads a coverage-summary JSON document, preserving the key order of
// the original object. Entries that fail to decode are kept as empty
// summaries rather than aborting the load.
func Load(r io.Reader) (*ProjectSummary, error) {
	s := NewProjectSummary()

	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read summary document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("summary document is not a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read summary key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("summary key is not a string")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read summary entry %q: %w", key, err)
		}
		fs := &FileSummary{}
		if err := json.Unmarshal(raw, fs); err != nil {
			// Malformed entry; keep the path with zeroed stats.
			fs = &FileSummary{}
		}
		s.Put(key, fs)
	}

	return s, nil
}

// LoadFile reads a summary document from disk. A missing or unparseable
// file is a recoverable condition: the returned summary is empty and the
// error describes why, so the caller can log it and continue.
func LoadFile(path string) (*ProjectSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return NewProjectSummary(), fmt.Errorf("open summary: %w", err)
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return NewProjectSummary(), err
	}
	return s, nil
}
