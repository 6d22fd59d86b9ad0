package urlpath

import (
	"fmt"
	"strings"
)

// HashType selects how a path is written into a hash fragment.
type HashType string

const (
	// HashSlash writes "#/home" (the default).
	HashSlash HashType = "slash"
	// HashNoSlash writes "#home".
	HashNoSlash HashType = "noslash"
	// HashBang writes "#!/home".
	HashBang HashType = "hashbang"
)

// ParseHashType validates a configured hash type. Empty selects HashSlash.
func ParseHashType(s string) (HashType, error) {
	switch t := HashType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return HashSlash, nil
	case HashSlash, HashNoSlash, HashBang:
		return t, nil
	default:
		return "", fmt.Errorf("unknown hash type %q (expected slash, noslash or hashbang)", s)
	}
}

// EncodePath turns an address into fragment text (without the leading "#").
func (t HashType) EncodePath(addr string) string {
	switch t {
	case HashNoSlash:
		return strings.TrimPrefix(addr, "/")
	case HashBang:
		if strings.HasPrefix(addr, "!") {
			return addr
		}
		return "!" + addLeadingSlash(addr)
	default:
		return addLeadingSlash(addr)
	}
}

// DecodePath turns fragment text (without the leading "#") back into an address.
func (t HashType) DecodePath(fragment string) string {
	if t == HashBang {
		fragment = strings.TrimPrefix(fragment, "!")
	}
	return addLeadingSlash(fragment)
}

// Fragment extracts the text after the first "#" of a URL.
// It returns the empty string when there is none.
func Fragment(url string) string {
	if i := strings.IndexByte(url, '#'); i >= 0 {
		return url[i+1:]
	}
	return ""
}

// StripFragment returns url without its "#..." suffix.
func StripFragment(url string) string {
	if i := strings.IndexByte(url, '#'); i >= 0 {
		return url[:i]
	}
	return url
}

func addLeadingSlash(s string) string {
	if strings.HasPrefix(s, "/") {
		return s
	}
	return "/" + s
}
