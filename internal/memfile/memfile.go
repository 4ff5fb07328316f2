// Package memfile loads memory lists from JSON files for the CLI.
package memfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/ppiankov/groundcheck/internal/model"
)

// rawMemory tolerates the loose on-disk shape: only text is required.
type rawMemory struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Trust     *float64 `json:"trust"`
	Timestamp *int64   `json:"timestamp"`
}

type wrapper struct {
	Memories []json.RawMessage `json:"memories"`
}

// Load reads memories from path. The file holds either a JSON array of
// memory objects or an object with a "memories" key. Bare strings are
// accepted as memory texts. Missing trust defaults to 1.0; missing ids are
// generated.
func Load(path string) ([]model.Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInputMalformed, err)
	}
	return Parse(data)
}

// Parse decodes the memory-file format from raw bytes.
func Parse(data []byte) ([]model.Memory, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		var w wrapper
		if err := json.Unmarshal(data, &w); err != nil || w.Memories == nil {
			return nil, fmt.Errorf("%w: memory file must be a JSON array or {\"memories\": [...]}", model.ErrInputMalformed)
		}
		entries = w.Memories
	}

	memories := make([]model.Memory, 0, len(entries))
	for i, entry := range entries {
		var text string
		if err := json.Unmarshal(entry, &text); err == nil {
			memories = append(memories, model.Memory{
				ID:    fmt.Sprintf("m%d", i),
				Text:  text,
				Trust: model.DefaultTrust,
			})
			continue
		}

		var raw rawMemory
		if err := json.Unmarshal(entry, &raw); err != nil {
			return nil, fmt.Errorf("%w: memory entry %d is neither string nor object", model.ErrInputMalformed, i)
		}
		if raw.Text == "" {
			return nil, fmt.Errorf("%w: memory entry %d has no text", model.ErrInputMalformed, i)
		}

		trust := model.DefaultTrust
		if raw.Trust != nil {
			trust = *raw.Trust
		}
		if trust < 0 || trust > 1 {
			return nil, fmt.Errorf("%w: memory entry %d trust %v outside [0,1]", model.ErrInputMalformed, i, trust)
		}

		id := raw.ID
		if id == "" {
			id = uuid.NewString()
		}

		memories = append(memories, model.Memory{
			ID:        id,
			Text:      raw.Text,
			Trust:     trust,
			Timestamp: raw.Timestamp,
		})
	}
	return memories, nil
}
