package urlpath

import (
	"path"
	"strings"

	"github.com/aretw0/waypoint/pkg/domain"
)

// Parse splits an address into its pathname, search and hash components.
// Components absent from s are left empty.
func Parse(s string) domain.Path {
	var p domain.Path
	if s == "" {
		return p
	}

	if i := strings.IndexByte(s, '#'); i >= 0 {
		p.Hash = s[i:]
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		p.Search = s[i:]
		s = s[:i]
	}
	p.Pathname = s
	return p
}

// Create joins path components into an address.
func Create(p domain.Path) string {
	return p.String()
}

// IsAbsolute reports whether pathname starts at the root.
func IsAbsolute(pathname string) bool {
	return strings.HasPrefix(pathname, "/")
}

// Resolve resolves the pathname to against from, the way a browser resolves
// a relative link: "c" from "/a/b" is "/a/c" and "../c" from "/a/b" is "/c".
// A trailing slash is kept when to ends in "/", "." or "..".
func Resolve(to, from string) string {
	if to == "" {
		if from == "" {
			return domain.DefaultPathname
		}
		return from
	}

	joined := to
	if !IsAbsolute(to) {
		base := domain.DefaultPathname
		if i := strings.LastIndexByte(from, '/'); i >= 0 {
			base = from[:i+1]
		}
		joined = base + to
	}

	last := to[strings.LastIndexByte(to, '/')+1:]
	trailing := last == "" || last == "." || last == ".."

	resolved := path.Clean(joined)
	if !IsAbsolute(resolved) {
		resolved = "/" + resolved
	}
	if trailing && !strings.HasSuffix(resolved, "/") {
		resolved += "/"
	}
	return resolved
}

// Merge computes the next address when navigating from current to the
// partial path to. The pathname is inherited from current when to has none
// and resolved against it when relative; search and hash come from to only.
func Merge(current, to domain.Path) domain.Path {
	next := domain.Path{
		Pathname: current.Pathname,
		Search:   to.Search,
		Hash:     to.Hash,
	}
	if to.Pathname != "" {
		next.Pathname = Resolve(to.Pathname, current.Pathname)
	}
	if next.Pathname == "" {
		next.Pathname = domain.DefaultPathname
	}
	return next
}
