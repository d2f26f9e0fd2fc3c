package mail

import (
	"encoding/json"
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ApplyPlaceholders replaces every {{key}} with values[key]. Keys without
// a value become empty strings.
func ApplyPlaceholders(text string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		key := placeholderPattern.FindStringSubmatch(m)[1]
		return values[key]
	})
}

// PlaceholderKeys decodes a serialized JSON array of placeholder names.
// Nil or malformed input gives no keys.
func PlaceholderKeys(placeholders *string) []string {
	if placeholders == nil {
		return nil
	}
	var keys []string
	if err := json.Unmarshal([]byte(*placeholders), &keys); err != nil {
		return nil
	}
	return keys
}

// Render fills subject and body. Templates that declare no placeholders are
// sent verbatim.
func Render(subject, body string, placeholders *string, values map[string]string) (string, string) {
	if len(PlaceholderKeys(placeholders)) == 0 {
		return subject, body
	}
	return ApplyPlaceholders(subject, values), ApplyPlaceholders(body, values)
}
