// Package services defines the error taxonomy shared by the publish pipeline
// and the subprocess clients under services/.
//
// Errors are tagged with sentinel markers so callers can classify a failed
// cycle without string matching: configuration problems keep the loop polling,
// external-tool failures carry the tool's captured diagnostics, and anything
// else is transient.
package services
