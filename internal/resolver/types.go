package resolver

import "strings"

// ContentTypes maps a file extension, without the dot and in lower case,
// to its MIME type.
type ContentTypes map[string]string

// DefaultContentTypes is the table the server starts with.
// "text/js" is kept as is for compatibility with existing clients.
var DefaultContentTypes = ContentTypes{
	"html": "text/html",
	"css":  "text/css",
	"js":   "text/js",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"pdf":  "application/pdf",
}

// Merge returns a new table holding the entries of t overwritten by those of
// overrides. Neither input is modified.
func (t ContentTypes) Merge(overrides map[string]string) ContentTypes {
	merged := make(ContentTypes, len(t)+len(overrides))
	for ext, mimeType := range t {
		merged[ext] = mimeType
	}
	for ext, mimeType := range overrides {
		merged[strings.ToLower(strings.TrimPrefix(ext, "."))] = mimeType
	}
	return merged
}

func (t ContentTypes) Lookup(ext string) (string, bool) {
	mimeType, ok := t[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return mimeType, ok
}
