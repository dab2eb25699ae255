package lines

import (
	"path/filepath"

	"github.com/filetug/lazyfiler/pkg/fsperm"
)

// FileType is the kind of a row, symbolic links folded in.
type FileType int

const (
	Regular FileType = iota
	Directory
	Other
	LinkRegular
	LinkDirectory
	LinkOther
)

func (t FileType) IsDir() bool {
	return t == Directory || t == LinkDirectory
}

func (t FileType) IsRegular() bool {
	return t == Regular || t == LinkRegular
}

func (t FileType) IsLink() bool {
	return t == LinkRegular || t == LinkDirectory || t == LinkOther
}

func (t FileType) String() string {
	switch t {
	case Regular:
		return "regular"
	case Directory:
		return "directory"
	case LinkRegular:
		return "link-regular"
	case LinkDirectory:
		return "link-directory"
	case LinkOther:
		return "link-other"
	default:
		return "other"
	}
}

type Metadata struct {
	Perm fsperm.Permissions
	Type FileType
}

// Item is one visible row. Items are snapshots and are rebuilt rather than
// patched when the filesystem changes.
type Item struct {
	Level    int
	Path     string
	Metadata Metadata
}

func (i Item) Name() string {
	return filepath.Base(i.Path)
}

// Dir is the directory the item lives in.
func (i Item) Dir() string {
	return filepath.Dir(i.Path)
}
