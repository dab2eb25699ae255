// Package state remembers the root and the expanded directories between
// runs.
package state

import (
	"path/filepath"

	"github.com/filetug/lazyfiler/pkg/fsutils"
	"github.com/filetug/lazyfiler/pkg/logging"
	"github.com/filetug/lazyfiler/pkg/settings"
)

const stateFileName = "lazyfiler-state.json"

type State struct {
	Root     string   `json:"root,omitempty"`
	Expanded []string `json:"expanded,omitempty"`
}

var getUserDir = settings.GetUserDir
var readJSON = fsutils.ReadJSONFile
var writeJSON = fsutils.WriteJSONFile

func getStateFilePath() (string, error) {
	dir, err := getUserDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, stateFileName), nil
}

// Load returns the saved state, empty when nothing was saved yet.
func Load() (State, error) {
	var state State
	filePath, err := getStateFilePath()
	if err != nil {
		return state, err
	}
	return state, readJSON(filePath, false, &state)
}

// Save overwrites the saved state. Failures are only logged.
func Save(state State) {
	filePath, err := getStateFilePath()
	if err == nil {
		err = writeJSON(filePath, state)
	}
	if err != nil {
		logging.Warn("failed to save state", logging.Err(err))
	}
}
