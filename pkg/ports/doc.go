/*
Package ports defines the driven ports (interfaces) of the Waypoint history engine.

These interfaces decouple the transition engine from the environment that
actually records navigation, so the same engine runs against an in-memory list,
a durable session history (memory, file or Redis backed) or a hash fragment.

# Key Interfaces

  - Backend: What the engine drives. Owns the position pointer and reports moves.
  - SessionHistory: A browser-like session history that durable backends write to.
  - UnloadGuard: Vetoes discarding the session while blockers are registered.
  - DistributedLocker: Serializes access to a session across replicas.
*/
package ports
