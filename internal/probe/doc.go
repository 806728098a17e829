// Package probe defines the metadata extraction boundary.
//
// A Prober is an opaque oracle that returns structured fields for one media
// file or fails. Probers may be slow or hang on pathological inputs
// (corrupted images, malformed containers); callers bound their own wait
// with a per-file timeout rather than trusting the prober to return.
//
// The built-in ImageProber reads dimensions from image headers without a
// full decode. Video probing is expected to be provided by an external
// prober (e.g. an ffprobe wrapper) satisfying the same interface.
package probe
