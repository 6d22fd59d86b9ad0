package domain

const (
	// DefaultKey is the key of a location the backend holds no record for,
	// typically the very first entry of a fresh session.
	DefaultKey = "default"

	// DefaultPathname is used when neither the target nor the current location
	// carries a pathname.
	DefaultPathname = "/"
)
