// Package render substitutes {{key}} placeholders in HTML templates.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"
)

// Execute replaces every {{key}} in tmpl with the matching value from data.
// Tags are matched literally (no whitespace trimming); tags with no value in
// data are left untouched, as is a trailing {{ with no closing }}.
func Execute(tmpl string, data map[string]any) (string, error) {
	head, tail := splitUnclosed(tmpl)
	t, err := fasttemplate.NewTemplate(head, startTag, endTag)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	out, err := t.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		v, ok := data[tag]
		if !ok {
			return io.WriteString(w, startTag+tag+endTag)
		}
		return fmt.Fprint(w, v)
	})
	if err != nil {
		return "", err
	}
	return out + tail, nil
}

// splitUnclosed cuts tmpl before the first start tag that has no end tag
// after it. Every start tag in head is closed.
func splitUnclosed(tmpl string) (head, tail string) {
	rest := tmpl
	if end := strings.LastIndex(tmpl, endTag); end >= 0 {
		rest = tmpl[end+len(endTag):]
	}
	i := strings.Index(rest, startTag)
	if i < 0 {
		return tmpl, ""
	}
	cut := len(tmpl) - len(rest) + i
	return tmpl[:cut], tmpl[cut:]
}

// File reads the template at path and executes it with data.
func File(path string, data map[string]any) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return Execute(string(b), data)
}
