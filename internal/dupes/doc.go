// Package dupes finds files with identical content.
//
// Candidates are narrowed in three passes: by size, by a fingerprint of
// the first kilobyte, and finally by a fingerprint of the whole content.
// Each pass only looks at the survivors of the previous one, so most
// non-duplicates are never read at all. Trees are walked using fastwalk
// for parallel traversal.
package dupes
