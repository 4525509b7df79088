// Package validate cross-checks the referential integrity of a dataset.
//
// A dataset is a web of references: search indexes point at entry ids,
// category mappings point at word ids, learning orders point at kanji
// literals, chunk manifests promise coverage and alignment. Each such
// edge set is a relation; a run executes the standard relations
// concurrently and merges their findings into a single deterministic
// Report. Violations are data findings, not errors — an unreadable input
// becomes a finding too, so a run always produces a report.
//
// # Fast and full mode
//
// Full mode walks every edge. Fast mode inspects seeded samples instead:
// each relation draws from its own named stream, so the subset a run
// checks depends only on the seed, never on goroutine scheduling. Two
// fast runs with the same seed over the same dataset produce identical
// reports.
package validate
