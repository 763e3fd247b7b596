// Package shifts holds the domain logic for the shift and task lifecycle.
//
// The rules are small but strict: at most one shift is active at a time;
// starting a shift while one is active is an idempotent no-op; starting a
// fresh shift carries every incomplete task in the store forward to it in the
// same transaction that creates the shift; task completion toggles freely and
// never consults shift state. Treat this package as the single source of
// truth for those semantics.
package shifts
