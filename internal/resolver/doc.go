// Package resolver maps directory paths to fully linked folder chains
// within one project.
//
// Resolution walks from the longest existing ancestor downward, creating
// any missing intermediate folders and linking each to its parent. Ancestor
// lookups use normalized path keys, so a directory already indexed under
// different casing is reused instead of spawning an orphaned duplicate.
package resolver
