package urlpath_test

import (
	"testing"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/urlpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Path
	}{
		{"", domain.Path{}},
		{"/a/b", domain.Path{Pathname: "/a/b"}},
		{"/a?b=1#c?d", domain.Path{Pathname: "/a", Search: "?b=1", Hash: "#c?d"}},
		{"?q=1", domain.Path{Search: "?q=1"}},
		{"#top", domain.Path{Hash: "#top"}},
		{"rel/path#h", domain.Path{Pathname: "rel/path", Hash: "#h"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := urlpath.Parse(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.want.Pathname != "" {
				assert.Equal(t, tt.in, urlpath.Create(got))
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		to, from, want string
	}{
		{"", "", "/"},
		{"", "/a", "/a"},
		{"c", "/a/b", "/a/c"},
		{"c", "", "/c"},
		{"../c", "/a/b", "/c"},
		{"..", "/a/b/c", "/a/"},
		{".", "/a/b", "/a/"},
		{"dir/", "/a/b", "/a/dir/"},
		{"/x/./y", "/a", "/x/y"},
		{"../../..", "/a", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.to+" from "+tt.from, func(t *testing.T) {
			assert.Equal(t, tt.want, urlpath.Resolve(tt.to, tt.from))
		})
	}
}

func TestMerge(t *testing.T) {
	current := domain.Path{Pathname: "/a/b", Search: "?x=1", Hash: "#h"}

	assert.Equal(t, domain.Path{Pathname: "/a/b", Search: "?y=2"}, urlpath.Merge(current, domain.Path{Search: "?y=2"}))
	assert.Equal(t, domain.Path{Pathname: "/a/b", Hash: "#z"}, urlpath.Merge(current, domain.Path{Hash: "#z"}))
	assert.Equal(t, domain.Path{Pathname: "/a/c"}, urlpath.Merge(current, domain.Path{Pathname: "c"}))
	assert.Equal(t, domain.Path{Pathname: "/"}, urlpath.Merge(domain.Path{}, domain.Path{}))
}

func TestHashType(t *testing.T) {
	tests := []struct {
		hashType urlpath.HashType
		addr     string
		encoded  string
	}{
		{urlpath.HashSlash, "/home", "/home"},
		{urlpath.HashSlash, "home", "/home"},
		{urlpath.HashNoSlash, "/home", "home"},
		{urlpath.HashBang, "/home", "!/home"},
		{urlpath.HashBang, "home", "!/home"},
	}
	for _, tt := range tests {
		t.Run(string(tt.hashType)+" "+tt.addr, func(t *testing.T) {
			encoded := tt.hashType.EncodePath(tt.addr)
			assert.Equal(t, tt.encoded, encoded)
			assert.Equal(t, "/home", tt.hashType.DecodePath(encoded))
		})
	}
}

func TestParseHashType(t *testing.T) {
	ht, err := urlpath.ParseHashType("")
	require.NoError(t, err)
	assert.Equal(t, urlpath.HashSlash, ht)

	ht, err = urlpath.ParseHashType(" HashBang ")
	require.NoError(t, err)
	assert.Equal(t, urlpath.HashBang, ht)

	_, err = urlpath.ParseHashType("bang")
	assert.Error(t, err)
}

func TestFragment(t *testing.T) {
	assert.Equal(t, "/a?b", urlpath.Fragment("/index.html#/a?b"))
	assert.Equal(t, "", urlpath.Fragment("/index.html"))
	assert.Equal(t, "/index.html", urlpath.StripFragment("/index.html#/a"))
	assert.Equal(t, "/index.html", urlpath.StripFragment("/index.html"))
}
