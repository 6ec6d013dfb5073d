/*
Package ports defines the driven ports (interfaces) of the majbot engine.

These interfaces decouple the conversation engine from the graph definition and from
session persistence, so hosts can plug in their own implementations.

# Key Interfaces

  - StateSource: the mutable repository of states the engine walks and learns into.
  - SessionStore: persists session snapshots (current level and captured variables).
  - DistributedLocker: serializes turns of one session across replicas.
*/
package ports
