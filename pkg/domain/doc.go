/*
Package domain contains the core domain models of the coach dialogue engine.

It defines the conversation script, the off-route rules, the per-visitor
Session and the request/response contracts exchanged with the backend.
This package is kept pure and free of I/O, following Hexagonal Architecture
principles.

# Key Entities

  - StateDef: One step of the script (messages, quick replies, collection, next).
  - Trigger: An off-route pattern. Earlier triggers win.
  - Session: The mutable record of one conversation (state pointer, profile, counters).
  - ScriptLoadError: The only failure that prevents a conversation from starting.
*/
package domain
