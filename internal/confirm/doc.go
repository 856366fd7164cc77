// Package confirm defers risky actions until the requesting actor confirms
// them.
//
// Each actor has at most one pending action. A new request replaces the
// previous one, which is discarded without running. A pending action lives for
// the confirmation window (30 seconds); after that it can no longer be
// confirmed and is removed by the expiry worker.
//
// State per actor:
//
//	NONE -> PENDING (Request) -> EXECUTED (Confirm) | EXPIRED (Sweep) -> NONE
//
// # Expiry
//
// Request schedules one expiry check per call. Checks are never cancelled:
// when a check comes due, the entry is removed only if it still exists and is
// at least one window old, recomputed at sweep time. A confirmed entry is
// already gone, and a replaced entry is younger than the window, so stale
// checks are no-ops.
//
// Request, Confirm and Sweep serialize on one mutex. Actions run outside the
// lock on the goroutine that called Confirm.
package confirm
