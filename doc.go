/*
Package waypoint keeps a virtual stack of navigation locations and reconciles
it with a pluggable, possibly asynchronous backend.

A location is a path (pathname, search, hash), an opaque state value and a
unique key. Hosts push, replace and move through the stack; registered
blockers may hold any transition back and let it through later by calling
Retry. Moves the backend applies on its own (a "back" button, another replica
moving a shared session) are undone while blockers are registered and replayed
only when a blocker approves them.

# Backends

  - memory: a plain list, for tests and non-browser hosts.
  - browser: durable addresses written to a ports.SessionHistory.
  - hash: the location encoded in the hash fragment of a session history.

Session histories are provided in memory, as a JSON file, or in Redis.

# Usage

	ctx := context.Background()
	h, err := waypoint.NewMemory(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer h.Close()

	h.Listen(func(u domain.Update) {
		log.Println(u.Action, u.Location.Path, u.Index)
	})

	var unblock func()
	unblock = h.Block(func(tx domain.Transition) {
		if confirm("Leave this page?") {
			unblock()
			_ = tx.Retry(ctx)
		}
	})

	_ = h.Push(ctx, "/settings?tab=profile", nil)
*/
package waypoint
