// Package settings reads the user settings of the explorer from
// ~/.lazyfiler/settings.json. A missing file means defaults.
package settings

import (
	"os"
	"path/filepath"

	"github.com/filetug/lazyfiler/pkg/fsutils"
)

const UserDir = "~/.lazyfiler"
const fileName = "settings.json"

var osUserHomeDir = os.UserHomeDir
var osGetenv = os.Getenv
var readJSON = fsutils.ReadJSONFile

func GetUserDir() (string, error) {
	userHomeDir, err := osUserHomeDir()
	if err != nil {
		return UserDir, err
	}
	return filepath.Join(userHomeDir, UserDir[2:]), nil
}

type Log struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
	File   string `json:"file,omitempty"`
}

type Settings struct {
	// Style is a chroma style name the row colours are taken from.
	Style string `json:"style,omitempty"`

	// GitStatus marks changed files; on unless set to false.
	GitStatus *bool `json:"git_status,omitempty"`

	Editor      string   `json:"editor,omitempty"`
	MetricsAddr string   `json:"metrics_addr,omitempty"`
	Expanded    []string `json:"expanded,omitempty"`
	Log         Log      `json:"log"`
}

func Default() Settings {
	return Settings{
		Style: "monokai",
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

func (s Settings) GitEnabled() bool {
	return s.GitStatus == nil || *s.GitStatus
}

// EditorCommand is the program files are opened with.
func (s Settings) EditorCommand() string {
	if s.Editor != "" {
		return s.Editor
	}
	for _, name := range []string{"VISUAL", "EDITOR"} {
		if v := osGetenv(name); v != "" {
			return v
		}
	}
	return "vi"
}

// FilePath is where Load reads the settings from.
func FilePath() (string, error) {
	dir, err := GetUserDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load returns the defaults overridden by whatever the settings file sets.
func Load() (Settings, error) {
	s := Default()
	path, err := FilePath()
	if err != nil {
		return s, err
	}
	if err = readJSON(path, false, &s); err != nil {
		return Default(), err
	}
	return s, nil
}
