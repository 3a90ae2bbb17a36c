package oracle

import "encoding/json"

// firstJSONObject returns the first balanced top-level {...} object found
// anywhere in s, or "" when none exists. The oracle may wrap its JSON in
// commentary or code fences, and the commentary itself may quote braces;
// every candidate span must parse as JSON, so scanning resumes past a brace
// that only opened inside surrounding prose.
func firstJSONObject(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		if span := balancedFrom(s[i:]); span != "" && json.Valid([]byte(span)) {
			return span
		}
	}
	return ""
}

// balancedFrom returns the balanced {...} prefix of s, skipping braces
// inside strings, or "" when the braces never close.
func balancedFrom(s string) string {
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
