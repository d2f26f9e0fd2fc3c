package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestApplyPlaceholders(t *testing.T) {
	out := ApplyPlaceholders("Hi {{name}}, order {{order_id}} {{missing}}!", map[string]string{
		"name":     "Ann",
		"order_id": "42",
	})
	assert.Equal(t, "Hi Ann, order 42 !", out)

	// not a placeholder: spaces or dashes inside braces
	assert.Equal(t, "{{ name }} {{a-b}}", ApplyPlaceholders("{{ name }} {{a-b}}", map[string]string{"name": "x"}))
}

func TestPlaceholderKeys(t *testing.T) {
	assert.Nil(t, PlaceholderKeys(nil))
	assert.Nil(t, PlaceholderKeys(strPtr("not json")))
	assert.Equal(t, []string{"a", "b"}, PlaceholderKeys(strPtr(`["a","b"]`)))
}

func TestRender(t *testing.T) {
	values := map[string]string{"name": "Ann"}

	subject, body := Render("Hi {{name}}", "<p>{{name}}</p>", strPtr(`["name"]`), values)
	assert.Equal(t, "Hi Ann", subject)
	assert.Equal(t, "<p>Ann</p>", body)

	subject, body = Render("Hi {{name}}", "<p>{{name}}</p>", nil, values)
	assert.Equal(t, "Hi {{name}}", subject)
	assert.Equal(t, "<p>{{name}}</p>", body)
}
