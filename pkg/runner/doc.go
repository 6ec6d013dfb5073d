/*
Package runner drives a single conversation over a stream, such as a terminal or a pipe.

It reads utterances through a pluggable IOHandler, sanitizes them, feeds them to the
engine and writes the replies back. When a SessionStore is configured the snapshot is
saved after every turn, so the conversation can be resumed later with Resume.

# Key Components

  - Runner: the read-send-reply loop.
  - TextHandler: line-based IO for interactive terminals, with an optional renderer.
  - JSONHandler: JSON-Lines IO for scripted clients.

# Usage

	r := runner.NewRunner(
		runner.WithSessionID("local"),
		runner.WithStore(store),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
