package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// parseObjectList extracts a list of strings from an LLM response body.
// Accepted shapes, in order of preference:
//   - a bare JSON array: ["dog", "cat"]
//   - a JSON object wrapping an array under any key: {"objects": ["dog"]}
//
// Markdown code fences around the JSON are stripped first. Anything else is
// a parse failure.
func parseObjectList(content string) ([]string, error) {
	content = stripCodeFence(strings.TrimSpace(content))
	if content == "" {
		return nil, fmt.Errorf("empty response body")
	}

	var direct []string
	if err := json.Unmarshal([]byte(content), &direct); err == nil {
		return direct, nil
	}

	// Some APIs in JSON mode wrap the array in a root object. Take the first
	// string array in key order, so the pick does not depend on map
	// iteration. A null value is not an array; an explicitly empty array is
	// a valid empty extraction but loses to any non-empty one.
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
		return nil, fmt.Errorf("response is neither a JSON array nor an object: %s", snippet(content))
	}

	keys := make([]string, 0, len(wrapped))
	for key := range wrapped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sawEmpty := false
	for _, key := range keys {
		raw := wrapped[key]
		if string(bytes.TrimSpace(raw)) == "null" {
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			continue
		}
		if len(list) > 0 {
			return list, nil
		}
		sawEmpty = true
	}
	if sawEmpty {
		return []string{}, nil
	}

	return nil, fmt.Errorf("no string array found in response object: %s", snippet(content))
}

// stripCodeFence removes a surrounding markdown code fence, if present.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag on the opening fence
	if idx := strings.Index(s, "\n"); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "json" || first == "" {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// snippet truncates content for error messages.
func snippet(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
