// Package chunk maps entry ids to the dataset files that hold them.
//
// Large packs split their entries into range-partitioned chunk files; the
// module manifest lists each file with its inclusive id range. A Table
// answers "which file holds id N" by binary search, and the Find helpers
// pull a single record out of a chunk: FindLine streams line-oriented
// files and stops at the match, FindEntry scans whole-document chunks.
package chunk
