// Package storage provides SQLite persistence for announced events.
//
// The storage package keeps a single sent_events table keyed by event ID that
// records which events have already been pushed to the destination chat, together
// with a copy of the title and the time of sending. Rows are upserted by ID and
// never deleted. The default database file is events.db in the working directory.
package storage
