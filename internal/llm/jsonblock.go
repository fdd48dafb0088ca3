package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a response holds no balanced JSON object or array.
var ErrNoJSON = errors.New("no JSON found in model output")

// FirstJSONBlock returns the first balanced {...} or [...] in s. Brackets inside
// JSON strings are ignored. Code fences and surrounding prose are skipped.
func FirstJSONBlock(s string) (string, error) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' && s[start] != '[' {
			continue
		}
		if end, ok := matchBlock(s, start); ok {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
	}
	return "", ErrNoJSON
}

func matchBlock(s string, start int) (int, bool) {
	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// DecodeJSON decodes the first JSON block of raw into v.
func DecodeJSON(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)
	if json.Valid([]byte(trimmed)) {
		return json.Unmarshal([]byte(trimmed), v)
	}
	block, err := FirstJSONBlock(trimmed)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(block), v); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}
