// Package session provides the in-memory session store for the arcade.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Monotonic session ID allocation (IDs are never reused)
//   - Per-session locking for read-modify-write updates
//   - Session removal and idle expiration
//
// Core Types:
//
// Manager owns every live session. Each record sits behind its own mutex,
// so two updates on the same ID are applied one after the other while
// updates on different IDs proceed in parallel. Callers only ever see
// deep copies of the stored records.
//
// Usage:
//
//	manager := session.NewManager(engine.NewEngine(nil))
//
//	sess := manager.Create("connectfour", playerID)
//
//	updated, err := manager.Update(sess.ID, func(s *engine.Session) error {
//		return eng.Apply(s, "drop_3")
//	})
//
//	removed, ok := manager.Remove(sess.ID)
//
// Lifetime:
//
// Sessions live for the lifetime of the process. CleanupExpiredSessions
// removes records that have not been updated within a given window.
package session
