// Package publish owns the incremental publish cycle: deciding which output
// frames are stale, driving the raster engine for just those frames, sweeping
// frames that no longer exist, and keeping the manifest and the on-disk state
// file consistent.
//
// A cycle is atomic from the reader's point of view: intermediates live in a
// per-cycle scratch directory, the manifest and state file are written with
// rename-over semantics, and state is persisted only after every output for
// the cycle landed. A crash mid-cycle leaves the previously published tree
// untouched.
package publish
