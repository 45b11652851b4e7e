package greeting

import (
	"fmt"
	"strings"
)

// MissingVariableError is returned when a template references a key that
// has no value in the substitution mapping.
type MissingVariableError struct {
	Key string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("Missing variable in template: '%s'", e.Key)
}

// MalformedTemplateError is returned when a template cannot be parsed.
type MalformedTemplateError struct {
	Reason string
}

func (e *MalformedTemplateError) Error() string {
	return fmt.Sprintf("Template formatting error: %s", e.Reason)
}

// Substitute replaces every {key} in template with vars[key].
// Doubled braces ({{ and }}) produce a literal brace. A field must be a plain
// key: positional indexes, attribute or index access, conversions and format
// specs are rejected as malformed. The template is processed left to right
// and the first problem found is returned.
func Substitute(template string, vars map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end, err := fieldEnd(template, i+1)
			if err != nil {
				return "", err
			}
			key := template[i+1 : end]
			if err := checkField(key); err != nil {
				return "", err
			}
			value, ok := vars[key]
			if !ok {
				return "", &MissingVariableError{Key: key}
			}
			b.WriteString(value)
			i = end
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", &MalformedTemplateError{Reason: "Single '}' encountered in format string"}
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}

// fieldEnd returns the index of the '}' closing a field that starts at start.
func fieldEnd(template string, start int) (int, error) {
	for j := start; j < len(template); j++ {
		switch template[j] {
		case '}':
			return j, nil
		case '{':
			return 0, &MalformedTemplateError{Reason: "unexpected '{' in field name"}
		}
	}
	return 0, &MalformedTemplateError{Reason: "expected '}' before end of string"}
}

func checkField(key string) error {
	if key == "" {
		return &MalformedTemplateError{Reason: "empty field name; only named placeholders are supported"}
	}
	if isDigits(key) {
		return &MalformedTemplateError{Reason: fmt.Sprintf("positional field {%s} is not supported", key)}
	}
	if strings.ContainsAny(key, "!:") {
		return &MalformedTemplateError{Reason: fmt.Sprintf("conversions and format specs are not supported in {%s}", key)}
	}
	if strings.ContainsAny(key, ".[]") {
		return &MalformedTemplateError{Reason: fmt.Sprintf("attribute or index access is not supported in {%s}", key)}
	}
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
