// Package analytics computes the per-user business summary and serves it
// through a read-through Redis cache with a short TTL. Staleness up to the
// TTL is acceptable; cache failures degrade to a fresh computation.
package analytics
