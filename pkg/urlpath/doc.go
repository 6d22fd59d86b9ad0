// Package urlpath parses, formats and resolves the address strings used by
// history backends, including the hash-fragment encodings.
package urlpath
