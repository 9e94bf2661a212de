package utils

import "strings"

// indexSuffix is the index document name stripped from page paths so that
// "/blog/post/index.html" and "/blog/post/" group the same comments.
const indexSuffix = "index.html"

// NormalizePath canonicalizes a page identifier before it is used as a
// comment grouping key. A trailing "index.html" (with or without a leading
// slash) is removed; everything else passes through unchanged.
func NormalizePath(p string) string {
	if strings.HasSuffix(p, indexSuffix) {
		return strings.TrimSuffix(p, indexSuffix)
	}
	return p
}

// NormalizePaths applies NormalizePath to every element of a slice,
// preserving order and length.
func NormalizePaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = NormalizePath(p)
	}
	return out
}
