// Package format turns snippet data into the strings the UI shows: ages,
// download file names, share links.
//
// Everything here is a pure function of its arguments. Callers pass "now"
// explicitly so the output is reproducible in tests.
package format

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ageUnit is one bucket of RelativeAge, largest first.
type ageUnit struct {
	name    string
	seconds int64
}

// A "month" is 30 days and a "year" 365; the output is a rough label, not
// calendar arithmetic.
var ageUnits = []ageUnit{
	{"year", 31536000},
	{"month", 2592000},
	{"week", 604800},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
}

// JustNow is returned for anything younger than a minute, and for
// timestamps in the future (clock skew).
const JustNow = "Just now"

// RelativeAge renders the time elapsed from t to now using the largest unit
// with a whole count of at least one: "2 minutes ago", "1 day ago".
func RelativeAge(now, t time.Time) string {
	elapsed := int64(now.Sub(t) / time.Second)
	for _, u := range ageUnits {
		if n := elapsed / u.seconds; n >= 1 {
			unit := u.name
			if n > 1 {
				unit += "s"
			}
			return fmt.Sprintf("%d %s ago", n, unit)
		}
	}
	return JustNow
}

// extensions maps the editor's language mode to a file extension.
var extensions = map[string]string{
	"javascript":    "js",
	"python":        "py",
	"text/x-c++src": "cpp",
	"text/x-java":   "java",
	"xml":           "html",
}

// Extension returns the download extension for language, "txt" when unknown.
func Extension(language string) string {
	if ext, ok := extensions[strings.ToLower(strings.TrimSpace(language))]; ok {
		return ext
	}
	return "txt"
}

// DefaultDownloadBase is used when a snippet name has nothing usable in it.
const DefaultDownloadBase = "code"

// DownloadName builds a safe attachment file name from a snippet name:
// "Quick Sort (v2)" in python becomes "Quick-Sort-v2.py".
func DownloadName(name, language string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	base := strings.Trim(b.String(), "-.")
	if base == "" {
		base = DefaultDownloadBase
	}
	return base + "." + Extension(language)
}

// ShareLink returns the address that opens ref in the viewer.
func ShareLink(baseURL, ref string) string {
	return strings.TrimRight(baseURL, "/") + "/view?snippet=" + url.QueryEscape(ref)
}

// CodeShareLink returns an address that carries code itself instead of a
// reference, for sharing an editor buffer that was never saved.
func CodeShareLink(baseURL, code, language string) string {
	v := url.Values{}
	v.Set("code", code)
	if language != "" {
		v.Set("language", language)
	}
	return strings.TrimRight(baseURL, "/") + "/view?" + v.Encode()
}

// QuickSaveName names a snippet saved straight from the editor; n is its
// 1-based position in the collection.
func QuickSaveName(n int, language string) string {
	return fmt.Sprintf("Snippet #%d (%s)", n, language)
}
