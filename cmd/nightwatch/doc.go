// Package main hosts the Nightwatch CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the serve-mode daemon, shift lifecycle
// actions, task management, status reporting, and configuration scaffolding.
// Commands other than serve operate directly on the SQLite store, so they
// work whether or not the daemon is running.
//
// Keep this package lean: lifecycle rules belong in internal/shifts and
// persistence in internal/store; commands here translate terminal invocations
// and render output.
package main
