package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeJSONResponse parses a model response that is expected to be a
// single JSON object, tolerating markdown code fences around it.
func decodeJSONResponse(resp string, v any) error {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	dec := json.NewDecoder(strings.NewReader(resp))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("parse json: %w (response: %s)", err, truncateForError(resp))
	}
	return nil
}

// truncateForError keeps error messages from dragging whole model
// responses into logs.
func truncateForError(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "... [truncated]"
}
