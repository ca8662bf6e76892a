package utils

import "strings"

// ResolveImageURL joins a relative image path onto base.  Absolute URLs,
// empty paths and an empty base are returned unchanged.
func ResolveImageURL(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" || base == "" {
		return path
	}
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// ResolveImageURLs applies ResolveImageURL to every element of paths.
func ResolveImageURLs(base string, paths []string) []string {
	if len(paths) == 0 {
		return paths
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = ResolveImageURL(base, p)
	}
	return out
}
