// Package frontier provides link normalization for crawl frontier discovery
// and the persisted seen-URL set shared across crawl invocations.
package frontier

import (
	"net/url"
	"regexp"
	"strings"
)

// nonDocumentExtensions matches resource paths the crawler never fetches:
// images, stylesheets, scripts, archives, video, and PDF.
var nonDocumentExtensions = regexp.MustCompile(
	`(?i)\.(jpg|jpeg|png|gif|webp|svg|ico|css|js|pdf|mp4|m3u8|zip|rar)$`,
)

// Normalizer canonicalizes discovered links against a single crawl target
// domain. Host comparison is a case-insensitive exact match; subdomains are
// treated as foreign hosts.
type Normalizer struct {
	domain string
}

// NewNormalizer creates a Normalizer for the given target domain
// (host[:port], as it appears in crawl URLs).
func NewNormalizer(domain string) *Normalizer {
	return &Normalizer{domain: strings.ToLower(domain)}
}

// NormalizerForURL derives the target domain from a base crawl URL.
func NormalizerForURL(baseURL string) (*Normalizer, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	return NewNormalizer(parsed.Host), nil
}

// CanonicalURL returns the frontier form of a URL, so crawl seeds compare
// equal to links later discovered to the same page. The fragment is dropped
// and an empty path becomes "/"; unparseable input is returned unchanged.
func CanonicalURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	parsed.Fragment = ""

	if parsed.Path == "" {
		parsed.Path = "/"
	}

	return parsed.String()
}

// Normalize canonicalizes a raw href discovered on pageURL. It strips any
// fragment, resolves relative references, and rejects non-http(s) schemes,
// foreign hosts, and non-document resource extensions. The boolean is false
// for every rejected case; malformed markup never produces an error because
// link discovery must tolerate arbitrary input.
func (n *Normalizer) Normalize(rawHref, pageURL string) (string, bool) {
	if rawHref == "" {
		return "", false
	}

	// Strip fragment before parsing so that "#" -only links resolve empty.
	if i := strings.IndexByte(rawHref, '#'); i >= 0 {
		rawHref = rawHref[:i]
	}

	if rawHref == "" {
		return "", false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}

	ref, err := url.Parse(rawHref)
	if err != nil {
		return "", false
	}

	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}

	if !strings.EqualFold(resolved.Host, n.domain) {
		return "", false
	}

	if nonDocumentExtensions.MatchString(resolved.Path) {
		return "", false
	}

	return resolved.String(), true
}
