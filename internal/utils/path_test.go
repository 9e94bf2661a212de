package utils

import (
	"reflect"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/blog/post/index.html", "/blog/post/"},
		{"/blog/post/", "/blog/post/"},
		{"/index.html", "/"},
		{"index.html", ""},
		{"/blog/index.htm", "/blog/index.htm"}, // not the index suffix
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizePath(tc.in); got != tc.want {
			t.Fatalf("NormalizePath(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePaths_OrderAndLength(t *testing.T) {
	in := []string{"/a/index.html", "/b/", "/c/index.html"}
	want := []string{"/a/", "/b/", "/c/"}
	if got := NormalizePaths(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizePaths(%v) = %v; want %v", in, got, want)
	}
}
