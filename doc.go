/*
Package coach is an embeddable dialogue engine for scripted sales-qualification conversations.

A conversation script is data: an ordered list of states, each with messages to say,
quick replies to offer, fields to collect from the visitor's answer, and an optional
backend action (a carousel of transformation stories or a personalized recommendation).
Every utterance is first checked against an ordered list of off-route triggers; a match
hands the question to the backend's open-ended fallback and then brings the visitor
back to where they left off.

# Architecture

The engine follows a hexagonal layout. The dialogue logic lives in internal/runtime and
pkg/conversation; everything it talks to is a port in pkg/ports:

  - ScriptLoader: flow, off-route and recommendation documents (directory, Loam, HTTP, memory).
  - Backend: fallback answers, visitor memory, carousel and plans.
  - Renderer: messages, quick replies, cards, typing indicator and input gating.
  - SessionStore: live sessions for hosts that serve one turn per request.

Backend failures never escape the engine: each call site degrades to a local fallback.
Only a script that cannot be loaded prevents a conversation from starting.

# Usage

	c, conv, err := coach.Mount(ctx, coach.DefaultScript(), memory.NewBackend(), renderer)
	if err != nil {
		return err // the renderer already showed coach.InitFailedNotice
	}
	defer conv.Close()

	_ = conv.Submit(ctx, "I want to get stronger")
	_ = c.Script().Start()

For request/response hosts, build a runner.Service with Coach.Service and a
session.Manager. The coach command ships terminal, HTTP and MCP hosts.
*/
package coach
