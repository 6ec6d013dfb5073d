/*
Package majbot is a rule-based conversational engine.

A bot is a graph of states. Each state carries a prompt and an ordered list of keyword
rules; the engine scores the user's utterance against the rules of the current state and
follows the best one. Rules may capture part of the utterance into a session dictionary,
dispatch to a named response handler (such as the built-in weather handler), or teach the
bot a new fact by synthesizing a state at runtime.

# Concept

The definition (states, rules and invalid-input replies) is loaded from a YAML, JSON or XML
document. Every conversation runs on its own engine over a private copy of the
definition, so what one conversation learns never leaks into another. Hosts (the CLI, the
HTTP/websocket server, the MCP server) drive engines and persist session snapshots through
pkg/session.

# Usage

	bot, err := majbot.New("./bot.yaml")
	if err != nil {
		log.Fatal(err)
	}

	engine := bot.NewEngine()
	prompt, _ := engine.Message()
	fmt.Println(prompt)

	reply, err := engine.Send(ctx, "I am Alice")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(reply)

Placeholders such as [name] in prompts are replaced with captured values; unresolved
placeholders are removed.
*/
package majbot
