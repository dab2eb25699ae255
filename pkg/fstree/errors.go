package fstree

import "errors"

var (
	// ErrNotDir is returned when a path component resolves to something
	// other than a directory or a link to one.
	ErrNotDir = errors.New("not a directory")

	ErrNotAbsolute = errors.New("path is not absolute")
)
