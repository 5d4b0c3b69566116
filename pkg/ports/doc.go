/*
Package ports defines the interfaces between the coach engine and its surroundings.

These interfaces decouple the dialogue logic from external implementations, allowing
the engine to work with various script sources, backends, UIs and session stores.

# Key Interfaces

  - ScriptLoader: Retrieves the flow, off-route and recommendation documents.
  - Backend: The conversational backend (fallback answers, memory, carousel, plans).
  - Renderer: The UI sink for messages, quick replies, cards and input gating.
  - SessionStore: Persists live sessions for multi-request hosts.
  - DistributedLocker: Coordinates session access across replicas.
*/
package ports
