package frontier_test

import (
	"testing"

	"github.com/3bdelKhale2/Link-chatbot/internal/frontier"
)

func TestNormalize(t *testing.T) {
	n := frontier.NewNormalizer("x.com")

	tests := []struct {
		name    string
		href    string
		pageURL string
		want    string
		wantOK  bool
	}{
		// Resolution and acceptance
		{"relative path", "/a/b", "https://x.com/c", "https://x.com/a/b", true},
		{"relative sibling", "b", "https://x.com/a/", "https://x.com/a/b", true},
		{"absolute same domain", "https://x.com/news/1234", "https://x.com/", "https://x.com/news/1234", true},
		{"strip fragment", "/a/b#section", "https://x.com/c", "https://x.com/a/b", true},
		{"query preserved", "/a?page=2", "https://x.com/", "https://x.com/a?page=2", true},

		// Rejections
		{"image extension", "/a/b.png", "https://x.com/c", "", false},
		{"stylesheet", "/assets/site.css", "https://x.com/", "", false},
		{"pdf", "/docs/report.PDF", "https://x.com/", "", false},
		{"video playlist", "/stream/live.m3u8", "https://x.com/", "", false},
		{"foreign host", "https://other.com/a", "https://x.com/", "", false},
		{"subdomain rejected", "https://sub.x.com/a", "https://x.com/", "", false},
		{"mailto scheme", "mailto:someone@x.com", "https://x.com/", "", false},
		{"javascript scheme", "javascript:void(0)", "https://x.com/", "", false},
		{"empty href", "", "https://x.com/", "", false},
		{"fragment only", "#top", "https://x.com/a", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Normalize(tt.href, tt.pageURL)

			if ok != tt.wantOK {
				t.Fatalf("Normalize(%q, %q) ok = %v, want %v", tt.href, tt.pageURL, ok, tt.wantOK)
			}

			if got != tt.want {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.href, tt.pageURL, got, tt.want)
			}
		})
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"empty path gets slash", "https://x.com", "https://x.com/"},
		{"root unchanged", "https://x.com/", "https://x.com/"},
		{"path unchanged", "https://x.com/news/1234", "https://x.com/news/1234"},
		{"fragment dropped", "https://x.com/a#top", "https://x.com/a"},
		{"query preserved", "https://x.com?date=2025-08-14", "https://x.com/?date=2025-08-14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := frontier.CanonicalURL(tt.url); got != tt.want {
				t.Errorf("CanonicalURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

// Seed canonicalization must agree with link normalization for the same page.
func TestCanonicalURL_AgreesWithNormalize(t *testing.T) {
	n := frontier.NewNormalizer("x.com")

	seed := frontier.CanonicalURL("https://x.com")

	discovered, ok := n.Normalize("/", "https://x.com/news/1234")
	if !ok {
		t.Fatal("expected root link to normalize")
	}

	if seed != discovered {
		t.Errorf("seed %q != discovered root %q", seed, discovered)
	}
}

func TestNormalize_HostCaseInsensitive(t *testing.T) {
	n := frontier.NewNormalizer("X.COM")

	got, ok := n.Normalize("/a", "https://x.com/")
	if !ok || got != "https://x.com/a" {
		t.Errorf("expected case-insensitive host match, got (%q, %v)", got, ok)
	}
}
