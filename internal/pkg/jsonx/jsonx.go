// Package jsonx decodes JSON payloads out of model replies, which arrive
// either as a bare object or wrapped in a fenced code block.
package jsonx

import (
	"encoding/json"
	"strings"

	pkgerrors "github.com/fairwaylabs/swingsense-backend/internal/pkg/errors"
)

// Decode finds the JSON object in text and unmarshals it into v.
// Returns a malformed_response error when no parsable object is present.
func Decode(text string, v interface{}) error {
	raw := extractObject(text)
	if raw == "" {
		return pkgerrors.Newf(pkgerrors.CodeMalformedResponse, "no JSON object in reply")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return pkgerrors.New(pkgerrors.CodeMalformedResponse, err)
	}
	return nil
}

func extractObject(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		// Strip the fence and an optional language tag.
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
