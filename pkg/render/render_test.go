package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	testCases := []struct {
		name     string
		tmpl     string
		data     map[string]any
		expected string
	}{
		{
			name:     "Single key",
			tmpl:     "<h1>{{title}}</h1>",
			data:     map[string]any{"title": "Welcome"},
			expected: "<h1>Welcome</h1>",
		},
		{
			name:     "Repeated key",
			tmpl:     "{{name}} and {{name}}",
			data:     map[string]any{"name": "ann"},
			expected: "ann and ann",
		},
		{
			name:     "Non-string value",
			tmpl:     "count={{count}}",
			data:     map[string]any{"count": 3},
			expected: "count=3",
		},
		{
			name:     "Missing key is kept",
			tmpl:     "hi {{who}}",
			data:     map[string]any{},
			expected: "hi {{who}}",
		},
		{
			name:     "Whitespace inside tag is literal",
			tmpl:     "hi {{ who }}",
			data:     map[string]any{"who": "x"},
			expected: "hi {{ who }}",
		},
		{
			name:     "Unclosed tag is literal",
			tmpl:     "<p>{{name}}</p> {{ unclosed",
			data:     map[string]any{"name": "ann"},
			expected: "<p>ann</p> {{ unclosed",
		},
		{
			name:     "Unclosed tag without any tags",
			tmpl:     "<script>if (a {{ b) {}</script>",
			data:     map[string]any{"b": "x"},
			expected: "<script>if (a {{ b) {}</script>",
		},
		{
			name:     "Start tag swallowed by later tag",
			tmpl:     "a {{ b {{c}}",
			data:     map[string]any{"c": "x"},
			expected: "a {{ b {{c}}",
		},
		{
			name:     "No tags",
			tmpl:     "plain",
			data:     nil,
			expected: "plain",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Execute(tc.tmpl, tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>{{msg}}</p>"), 0o644))

	out, err := File(path, map[string]any{"msg": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", out)

	_, err = File(filepath.Join(dir, "missing.html"), nil)
	assert.Error(t, err)
}
