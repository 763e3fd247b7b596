// Package daemon coordinates the long-running Nightwatch serve process.
//
// It wires configuration, the SQLite store, and the shift lifecycle service
// into a single lifecycle with flock-based locking to prevent multiple
// instances. The daemon owns the dashboard HTTP API and the daily backup
// loop, which runs at startup, on a timer, and once more during shutdown.
//
// Keep orchestration logic here: lifecycle rules live in the shifts package
// and persistence in the store package, while the daemon focuses on startup,
// shutdown, and request routing.
package daemon
