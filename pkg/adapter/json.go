package adapter

import (
	"encoding/json"
	"strings"
)

// DecodeJSON parses a model completion as strict JSON, tolerating markdown
// code fences around the payload. Anything else fails the decode; callers
// apply their own fail-closed normalization.
func DecodeJSON(content string, v any) error {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	return json.Unmarshal([]byte(content), v)
}
