package resolver

import (
	"fmt"
	"net/http"
	"time"
)

// Comparator reports whether the copy a client holds, described by its
// If-Modified-Since header value, is still fresh for a file last modified
// at modTime.
type Comparator func(ifModifiedSince string, modTime time.Time) bool

// ExactMatch is fresh only when the client echoes back exactly the
// Last-Modified value the server sent. Dates are not parsed.
func ExactMatch(ifModifiedSince string, modTime time.Time) bool {
	return ifModifiedSince != "" && ifModifiedSince == FormatTime(modTime)
}

// NotModifiedSince follows RFC 7232 section 3.3: the header is parsed as an
// HTTP date and the file is fresh when it has not changed after it.
func NotModifiedSince(ifModifiedSince string, modTime time.Time) bool {
	if ifModifiedSince == "" {
		return false
	}
	since, err := http.ParseTime(ifModifiedSince)
	if err != nil {
		return false
	}
	return !modTime.Truncate(time.Second).After(since)
}

// ComparatorByName maps a configured freshness mode onto its comparator.
func ComparatorByName(name string) (Comparator, error) {
	switch name {
	case "", "exact":
		return ExactMatch, nil
	case "rfc7232":
		return NotModifiedSince, nil
	default:
		return nil, fmt.Errorf("unknown freshness mode %q", name)
	}
}

// FormatTime serializes t the way Last-Modified and Expires are sent.
func FormatTime(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
