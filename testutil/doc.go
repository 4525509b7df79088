// Package testutil provides deterministic fixtures for the test suites.
//
// This package is intended for use in tests and benchmarks only. It
// provides a seeded thread-safe RNG and a structured in-memory dataset
// builder that materializes a complete manifest chain, entry packs and
// search indexes into a packsource.Memory.
//
// # Fixture Datasets
//
//	eng, _ := lexgo.Open(ctx, testutil.StandardDataset().Build())
//
// Build derives the search index from the entries, so a fixture is
// internally consistent by construction. Tests that need a broken dataset
// overwrite individual documents after Build:
//
//	d := testutil.StandardDataset()
//	src := d.Build()
//	testutil.PutJSON(src, "search/words_rev.json", broken)
package testutil
