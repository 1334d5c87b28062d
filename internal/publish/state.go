package publish

import (
	"encoding/json"
	"os"

	"celpress/internal/alphabox"
	"celpress/internal/fileutil"
)

// StateVersion is the persisted schema version. A mismatch discards the file.
const StateVersion = 1

// StateFileName is the fixed state file name inside the output directory.
const StateFileName = ".publish_state.json"

// State is the single source of truth for incremental decisions, loaded at
// the start of a cycle and persisted only after every output landed.
type State struct {
	Version   int    `json:"version"`
	GlobalSig string `json:"global_sig"`
	// Crop is the published crop rectangle as [x, y, w, h].
	Crop []int `json:"crop"`
	// Frames maps frame file names to their content signatures.
	Frames map[string]string `json:"frames"`
	// InputFiles maps project-relative paths to size:mtime signatures.
	InputFiles map[string]string `json:"input_files"`
	// CelBBoxCache maps cel content signatures to detected boxes; a nil box
	// records a cel with no opaque pixels.
	CelBBoxCache map[string]*alphabox.Box `json:"cel_bbox_cache"`
}

func defaultState() *State {
	return &State{
		Version:      StateVersion,
		Crop:         []int{},
		Frames:       map[string]string{},
		InputFiles:   map[string]string{},
		CelBBoxCache: map[string]*alphabox.Box{},
	}
}

// LoadState reads the state file, falling back to an empty default when the
// file is absent, unreadable, or carries a different schema version. An empty
// default forces a full rebuild downstream because its global signature can
// never match.
func LoadState(path string) *State {
	raw, err := os.ReadFile(path)
	if err != nil {
		return defaultState()
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return defaultState()
	}
	if state.Version != StateVersion {
		return defaultState()
	}
	if state.Crop == nil {
		state.Crop = []int{}
	}
	if state.Frames == nil {
		state.Frames = map[string]string{}
	}
	if state.InputFiles == nil {
		state.InputFiles = map[string]string{}
	}
	if state.CelBBoxCache == nil {
		state.CelBBoxCache = map[string]*alphabox.Box{}
	}
	return &state
}

// SaveState persists the state with rename-over semantics.
func SaveState(path string, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}
