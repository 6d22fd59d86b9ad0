/*
Package session manages one history per session id.

It opens histories lazily over a ports.HistoryStore, serializes operations on
the same session with reference-counted local locks, and can additionally hold
a distributed lock so that several replicas sharing a Redis store do not
interleave writes.
*/
package session
