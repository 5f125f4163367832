// Package cli implements the command-line interface for pervye-events.
//
// The cli package provides the Cobra-based CLI: `run` starts the bot with its
// scheduler, `check` runs a single cycle (optionally as a dry run), `test`
// probes the events site and `sent` lists the events already announced. It
// wires configuration, scraper, storage, notifier and cycle packages together.
package cli
