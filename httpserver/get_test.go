package httpserver

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestBufSize(t *testing.T) {
	cases := []struct {
		n    int64
		want int
	}{
		{0, 0}, {-3, 0}, {1, 1}, {2, 2}, {3, 2}, {10, 8},
		{4095, 2048}, {4096, 4096}, {4097, 4096}, {1 << 20, 4096},
	}
	for _, c := range cases {
		if got := BufSize(c.n); got != c.want {
			t.Fatalf("BufSize(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestResolverConfinement(t *testing.T) {
	root := filepath.FromSlash("/srv/www")
	resolve := NewResolver(root, true)
	for _, res := range []string{"/../../etc/passwd", "../x", "/a/../../b", "//double", "/q?x=../../y"} {
		got := resolve(res)
		if got != root && !strings.HasPrefix(got, root+string(filepath.Separator)) {
			t.Fatalf("resolve(%q) = %q escapes %q", res, got, root)
		}
	}
	if got := resolve("/../../etc/passwd"); got != filepath.Join(root, "etc", "passwd") {
		t.Fatalf("resolve = %q", got)
	}
}

func TestResolverWithoutIsolation(t *testing.T) {
	resolve := NewResolver("/srv/www", false)
	if got := resolve("/etc/hosts"); got != filepath.FromSlash("/etc/hosts") {
		t.Fatalf("absolute resource resolved to %q", got)
	}
	if got := resolve("a/b"); got != filepath.Join("/srv/www", "a", "b") {
		t.Fatalf("relative resource resolved to %q", got)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if got := strings.Join(r.Methods(), ","); got != "GET,HEAD" {
		t.Fatalf("methods = %s", got)
	}
	if _, ok := r.Lookup("get"); !ok {
		t.Fatal("lookup is not case-insensitive")
	}
	r.Register("options", NotImplemented)
	if _, ok := r.Lookup("OPTIONS"); !ok {
		t.Fatal("registered method missing")
	}
}
