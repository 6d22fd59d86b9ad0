/*
Package observability turns history lifecycle hooks into Prometheus metrics and
structured log lines.

Hooks from several sources can be combined with Combine and passed to
waypoint.WithLifecycleHooks.
*/
package observability
