// Package ratelimit decides whether a client may perform an action, using
// fixed-window counters keyed by an opaque client identifier.
//
// State lives in process memory and is not shared between server instances.
// Stale windows are reset lazily on the next check and evicted by a periodic
// sweep that only bounds memory; it never changes a decision.
package ratelimit
