/*
Package domain contains the core models of the majbot conversation engine.

It defines the states of the conversation graph, the keyword rules that connect them,
and the session snapshot that captures a conversation in progress. This package is kept
free of I/O and persistence concerns.

# Key Entities

  - State: a node of the graph bundling prompt messages and outgoing keyword rules.
  - Keyword: a single rule; a shared pattern plus one Action (Transition, Dispatch or Learn).
  - Session: the serializable snapshot of an engine (current level and captured variables).
  - LifecycleHooks: callbacks fired by the engine for logging and metrics.
*/
package domain
