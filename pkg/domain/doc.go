/*
Package domain contains the core value types of the Waypoint navigation history.

It defines what a navigable position looks like and how a position became current.
The package is kept pure and free of I/O so that every backend (memory, session
history, hash fragment) and every adapter (HTTP, MCP, CLI) share the same model.

# Key Entities

  - Location: An immutable description of a position (path, state, unique key).
  - Action: How the current location came to be current (POP, PUSH, REPLACE).
  - Position: What a backend reports: a location paired with its index.
  - Transition: A proposed change offered to blockers, carrying a retry capability.
  - Entry / HistoryState: The record a durable backend stores per history entry.
*/
package domain
