/*
Package session orchestrates concurrent conversations.

A Manager owns one engine per live session, serializes the turns of each session with a
reference-counted local mutex (plus an optional distributed lock), and persists a
snapshot of the level and dictionary to a ports.SessionStore after every turn. A session
whose engine is not cached is resumed from its snapshot; states learned by the evicted
engine are not part of the snapshot and are lost.
*/
package session
