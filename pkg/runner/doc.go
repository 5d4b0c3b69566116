/*
Package runner executes conversation turns on behalf of hosts.

It acts as the bridge between the dialogue engine and the outside world. Two
drivers are provided:

  - Service: stateless turn execution for multi-session hosts (HTTP, MCP). Each
    call loads the session, runs one turn under the session lock, saves the
    session and publishes the turn's render events.
  - Chat: an interactive loop that feeds line-oriented input (a terminal) into a
    single conversation.

# Usage

	svc := runner.NewService(engine, session.NewManager(memory.NewStore()),
		runner.WithRateLimit(rate.Every(time.Second), 5),
	)
	turn, err := svc.Start(ctx)
	turn, err = svc.Input(ctx, turn.Session.ID, "run faster")
*/
package runner
