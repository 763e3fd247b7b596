// Package store persists shifts and tasks in SQLite and is the transactional
// boundary for every domain mutation.
//
// Open connects to the database, applies pragmas, and runs all pending schema
// migrations before returning; nothing else may touch the store until that
// completes. WithTx wraps one logical operation in a single transaction whose
// writes become durable together or not at all. Timestamps are stored as
// RFC3339 text in UTC. Foreign keys are enforced by SQLite, so a task's
// shift_id always references an existing shift or is null.
//
// The store also owns the daily backup primitive: EnsureDailyBackup produces
// one consistent snapshot per calendar day via VACUUM INTO.
package store
