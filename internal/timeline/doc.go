// Package timeline reconstructs a discrete animation timeline from a drawing
// project directory: global canvas metadata from data.txt and one sparse
// (start, duration) cel schedule per numbered layer folder.
//
// The model is immutable once loaded. Queries answer which cel a layer shows
// at a given output frame index and how many frames the whole timeline spans.
package timeline
