// Package searchindex resolves normalized keys to entry ids.
//
// The on-disk index is a set of base shards per domain and mode, each a
// sorted key list plus a key→ids map, bucketed by writing system so a
// lookup touches one shard. An Index covers one (domain, mode) pair;
// shards load lazily and stay memoized.
//
// Lookups are prefix scans: binary search to the first key at or past the
// query, then a forward walk while the prefix holds, bounded by maxKeys.
// The index reports hits in stored order and leaves ranking to the caller.
package searchindex
