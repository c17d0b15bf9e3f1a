package cleanblog

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

// AbsURL joins a base URL with path segments.
func AbsURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	return u.String()
}

// slugifyFilename converts a filename, without its extension, to a URL-safe
// slug. It falls back to "image" when nothing usable remains.
func slugifyFilename(name string) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(name, "\\", "/")), path.Ext(name))
	s := slug.Make(base)
	if s == "" {
		return "image"
	}
	return s
}

// parseID parses a positive post id from a path parameter.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
