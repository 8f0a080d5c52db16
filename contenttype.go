package netstash

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// downloadableTypes are the exact media types routed to the download path.
var downloadableTypes = map[string]struct{}{
	"application/pdf":          {},
	"application/zip":          {},
	"application/octet-stream": {},
	// MS Office legacy formats.
	"application/msword":            {},
	"application/vnd.ms-excel":      {},
	"application/vnd.ms-powerpoint": {},
	// Open-XML formats.
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
}

// downloadablePrefixes route whole top-level media classes to the download
// path.
var downloadablePrefixes = []string{"video/", "audio/", "image/"}

// Downloadable reports whether a Content-Type header value indicates a
// downloadable file rather than a structured payload to cache.
func Downloadable(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	if _, ok := downloadableTypes[mediaType]; ok {
		return true
	}
	for _, prefix := range downloadablePrefixes {
		if strings.HasPrefix(mediaType, prefix) {
			return true
		}
	}
	return false
}

// FileName derives a destination file name from the trailing path segment of
// a request key. Keys without a usable segment get a stable hash-based name
// so distinct keys never collide on a placeholder.
func FileName(key string) string {
	candidate := key
	if u, err := url.Parse(key); err == nil && u.Path != "" {
		candidate = u.Path
	}
	name := path.Base(candidate)
	if name == "" || name == "." || name == "/" {
		return fmt.Sprintf("%016x", xxhash.Sum64String(key))
	}
	return name
}
