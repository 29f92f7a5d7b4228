// File: httpserver/resolver.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpserver

import (
	"path"
	"path/filepath"
	"strings"
)

// Resolver maps a requested resource to a filesystem location.
type Resolver func(resource string) string

// NewResolver joins resources to root. With isolate set the resource is
// cleaned as a rooted path first, so the result never escapes root.
// Without it an absolute resource is used as is.
func NewResolver(root string, isolate bool) Resolver {
	return func(resource string) string {
		if i := strings.IndexAny(resource, "?#"); i >= 0 {
			resource = resource[:i]
		}
		if isolate {
			rel := strings.TrimLeft(path.Clean("/"+resource), "/")
			return filepath.Join(root, filepath.FromSlash(rel))
		}
		if path.IsAbs(resource) {
			return filepath.FromSlash(resource)
		}
		return filepath.Join(root, filepath.FromSlash(resource))
	}
}
