package middleware

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	root := t.TempDir()
	public := filepath.Join(root, "public")
	require.NoError(t, os.MkdirAll(filepath.Join(public, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(public, "index.html"), []byte("<p>home</p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(public, "css", "site.css"), []byte("b{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("secret"), 0o644))

	static := Static(public)

	testCases := []struct {
		name         string
		target       string
		expectServed bool
		expectedType string
		expectedBody string
	}{
		{"HTML file", "/index.html", true, "text/html", "<p>home</p>"},
		{"Nested file", "/css/site.css", true, "text/css", "b{}"},
		{"Directory", "/css", false, "", ""},
		{"Missing", "/nope.js", false, "", ""},
		{"Traversal", "/../secret.txt", false, "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, reached := run(t, http.MethodGet, tc.target, nil, nil, static)
			assert.Equal(t, !tc.expectServed, reached)
			if tc.expectServed {
				assert.Equal(t, tc.expectedType, w.Header().Get("Content-Type"))
				assert.Equal(t, tc.expectedBody, w.Body.String())
			} else {
				assert.Equal(t, "OK", w.Body.String())
			}
		})
	}
}
