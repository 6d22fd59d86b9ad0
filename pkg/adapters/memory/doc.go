// Package memory provides in-process implementations of the history ports:
// a list-backed Backend for non-browser hosts and a SessionHistory that
// simulates a browser session history for the browser and hash backends.
package memory
