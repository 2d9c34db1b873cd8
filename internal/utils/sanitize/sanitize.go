package sanitize

import (
	"html"
	"path"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict is a cached bluemonday policy that removes all HTML tags and attributes.
// It's safe for concurrent use as bluemonday.Policy is read-only after build.
// WARNING: Never call mutating helpers (e.g. AddAttr, AllowElements) on this policy
// after initialization as it would create a data race.
var strict = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// maxFilenameLen bounds the filename part of an object key.
const maxFilenameLen = 100

// Clean strips HTML from user supplied profile and section text and
// normalizes whitespace. Repositories assume already-cleaned input.
//
// Examples:
//   - "<p>hi</p>" -> "hi"
//   - "<b>a</b> <b>b</b>" -> "a b"
//   - "&nbsp;test" -> "test"
//   - "&lt;script&gt;x&lt;/script&gt;ok" -> "ok"
//
// Entities are decoded before the policy runs so escaped markup is stripped
// like real markup, and once more afterwards to undo the policy's own escaping.
func Clean(s string) string {
	sanitized := strict.Sanitize(html.UnescapeString(s))
	sanitized = html.UnescapeString(sanitized)
	sanitized = strings.ReplaceAll(sanitized, "\u00a0", " ")

	// collapse runs of spaces but keep line breaks
	lines := strings.Split(sanitized, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Filename reduces a client supplied file name to a key-safe form:
// directory parts are dropped and anything outside [A-Za-z0-9._-] becomes '-'.
// An empty result is returned as "file".
func Filename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}

	out := strings.Trim(b.String(), "-.")
	if len(out) > maxFilenameLen {
		out = out[len(out)-maxFilenameLen:]
	}
	if out == "" {
		return "file"
	}
	return out
}
