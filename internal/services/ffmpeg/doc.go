// Package ffmpeg wraps the ffmpeg and ffprobe CLIs as the raster compositing
// engine behind the publish pipeline.
//
// Every operation is a single synchronous subprocess invocation with captured
// diagnostics; a non-zero exit surfaces the tool's stderr text as the error.
// The Executor seam exists so pipeline tests can run without the binaries.
// Prefer this package over ad-hoc exec.Command usage when touching pixels.
package ffmpeg
