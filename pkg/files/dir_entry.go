package files

import (
	"io/fs"
	"os"
	"path/filepath"
)

// NewDirEntry builds a synthetic entry for stores that do not sit on top of
// the os package. The type bits of mode are reported by Type; the permission
// bits only surface through Info.
func NewDirEntry(name string, mode os.FileMode, o ...FileInfoOption) DirEntry {
	if parent, _ := filepath.Split(name); parent != "" {
		// It's OK to have panic here.
		panic("dir entry name can not have path: " + name)
	}
	dirEntry := DirEntry{
		name: name,
		mode: mode,
	}
	dirEntry.info = NewFileInfo(dirEntry, o...)
	return dirEntry
}

var _ os.DirEntry = (*DirEntry)(nil)

type DirEntry struct {
	name string
	mode os.FileMode
	info *FileInfo
}

func (d DirEntry) Name() string      { return d.name }
func (d DirEntry) IsDir() bool       { return d.mode.IsDir() }
func (d DirEntry) Type() os.FileMode { return d.mode.Type() }
func (d DirEntry) Info() (os.FileInfo, error) {
	if d.info == nil {
		return nil, fs.ErrNotExist
	}
	return d.info, nil
}
