package format

import (
	"testing"
	"time"
)

func TestRelativeAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"zero", 0, "Just now"},
		{"45 seconds", 45 * time.Second, "Just now"},
		{"59.9 seconds", 59*time.Second + 900*time.Millisecond, "Just now"},
		{"exactly a minute", time.Minute, "1 minute ago"},
		{"125 seconds", 125 * time.Second, "2 minutes ago"},
		{"one hour", time.Hour, "1 hour ago"},
		{"5 hours", 5*time.Hour + 59*time.Minute, "5 hours ago"},
		{"90000 seconds", 90000 * time.Second, "1 day ago"},
		{"13 days", 13 * 24 * time.Hour, "1 week ago"},
		{"14 days", 14 * 24 * time.Hour, "2 weeks ago"},
		{"30 days", 30 * 24 * time.Hour, "1 month ago"},
		{"364 days", 364 * 24 * time.Hour, "12 months ago"},
		{"365 days", 365 * 24 * time.Hour, "1 year ago"},
		{"3 years", 3 * 365 * 24 * time.Hour, "3 years ago"},
		{"future", -10 * time.Minute, "Just now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RelativeAge(now, now.Add(-tt.elapsed))
			if got != tt.want {
				t.Errorf("RelativeAge(%v) = %q, want %q", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"javascript":    "js",
		"python":        "py",
		"text/x-c++src": "cpp",
		"text/x-java":   "java",
		"xml":           "html",
		"Python":        "py",
		"go":            "txt",
		"":              "txt",
		"unknown":       "txt",
	}
	for lang, want := range tests {
		if got := Extension(lang); got != want {
			t.Errorf("Extension(%q) = %q, want %q", lang, got, want)
		}
	}
}

func TestDownloadName(t *testing.T) {
	tests := []struct {
		name     string
		language string
		want     string
	}{
		{"fib", "python", "fib.py"},
		{"Quick Sort (v2)", "python", "Quick-Sort-v2.py"},
		{"  spaced  out  ", "javascript", "spaced-out.js"},
		{"../../etc/passwd", "xml", "etc-passwd.html"},
		{"Snippet #3 (text/x-java)", "text/x-java", "Snippet-3-text-x-java.java"},
		{"", "python", "code.py"},
		{"???", "go", "code.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DownloadName(tt.name, tt.language); got != tt.want {
				t.Errorf("DownloadName(%q, %q) = %q, want %q", tt.name, tt.language, got, tt.want)
			}
		})
	}
}

func TestShareLink(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"http://localhost:8080", "cv3k1", "http://localhost:8080/view?snippet=cv3k1"},
		{"https://vault.example.com/", "0", "https://vault.example.com/view?snippet=0"},
		{"http://h", "a b&c", "http://h/view?snippet=a+b%26c"},
	}
	for _, tt := range tests {
		if got := ShareLink(tt.base, tt.ref); got != tt.want {
			t.Errorf("ShareLink(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
		}
	}
}

func TestCodeShareLink(t *testing.T) {
	tests := []struct {
		code, language, want string
	}{
		{"print('hi')", "python", "http://h/view?code=print%28%27hi%27%29&language=python"},
		{"a & b\n", "", "http://h/view?code=a+%26+b%0A"},
	}
	for _, tt := range tests {
		if got := CodeShareLink("http://h/", tt.code, tt.language); got != tt.want {
			t.Errorf("CodeShareLink(%q, %q) = %q, want %q", tt.code, tt.language, got, tt.want)
		}
	}
}

func TestQuickSaveName(t *testing.T) {
	if got := QuickSaveName(3, "python"); got != "Snippet #3 (python)" {
		t.Errorf("QuickSaveName() = %q", got)
	}
}
