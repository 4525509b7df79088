// Package manifest resolves a dataset's discovery chain.
//
// Every dataset starts at a fixed entry point, manifest.json, which names
// the six module manifests (search, words, names, kanji, kana,
// categories). Module manifests declare every file the engine may touch;
// nothing else about the layout is assumed. Load walks the chain, rewrites
// all references to dataset-relative paths and probes each one, so a
// *Manifest in hand means every declared file exists and lookups can trust
// the paths as given.
//
// # Failure model
//
// Any break in the chain is a *ConfigError carrying the offending path and
// a reason: missing or malformed manifest, unsupported version, undeclared
// module, dangling file reference. Load is the only place these checks
// run; query paths never re-validate.
package manifest
