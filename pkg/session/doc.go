/*
Package session serializes access to live conversation sessions.

Hosts that serve one turn per request (HTTP, MCP) load a session, run the turn
and save it back. The Manager guarantees that two requests for the same session
never interleave, locally through a reference-counted mutex per session and
across replicas through an optional ports.DistributedLocker.
*/
package session
