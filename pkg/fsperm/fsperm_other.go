//go:build !unix

package fsperm

import "os"

func owner(os.FileInfo) (uid, gid uint32, ok bool) {
	return 0, 0, false
}

func resolve(mode, _, _ uint32) Permissions {
	return fromBits(mode, 6)
}
