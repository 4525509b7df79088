// Package resource implements global limits and governance for the engine.
//
// The Controller provides centralized management of three resource types:
//
//   - Memory: Track and limit memory held by caches and materialized chunks
//   - Concurrency: Limit scan workers (validation relations, cache prefetch)
//   - IO: Rate-limit bulk scans to avoid starving foreground lookups
//
// # Architecture
//
//	┌─────────────────┬─────────────────┬─────────────────────────┐
//	│  Memory Limit   │  Scan Workers   │  IO Rate Limiter        │
//	│  (semaphore)    │  (semaphore)    │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  AcquireMemory  │  AcquireWorker  │  AcquireIO              │
//	│  TryAcquire     │  TryAcquire     │  RateLimitedReader      │
//	│  ReleaseMemory  │  ReleaseWorker  │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// All methods are nil-safe: a nil *Controller enforces nothing, so callers
// thread it through without guarding.
package resource
