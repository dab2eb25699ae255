//go:build unix

package fsperm

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

var (
	geteuid   = unix.Geteuid
	getegid   = unix.Getegid
	getgroups = unix.Getgroups
)

func owner(info os.FileInfo) (uid, gid uint32, ok bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok || st == nil {
		return 0, 0, false
	}
	return st.Uid, st.Gid, true
}

func resolve(mode, uid, gid uint32) Permissions {
	if uid == uint32(geteuid()) {
		return fromBits(mode, 6)
	}
	if gid == uint32(getegid()) || inGroups(gid) {
		return fromBits(mode, 3)
	}
	return fromBits(mode, 0)
}

func inGroups(gid uint32) bool {
	groups, err := getgroups()
	if err != nil {
		return false
	}
	for _, g := range groups {
		if uint32(g) == gid {
			return true
		}
	}
	return false
}
