// Package fsperm resolves what the effective user may do with a file
// from its raw mode, owner and group.
package fsperm

import (
	"io/fs"
	"os"
)

// Permissions is the effective access of the current process to a path.
type Permissions struct {
	Read  bool
	Write bool
	Exec  bool
}

// String renders the permissions as a three character "rwx" mask.
func (p Permissions) String() string {
	b := []byte("---")
	if p.Read {
		b[0] = 'r'
	}
	if p.Write {
		b[1] = 'w'
	}
	if p.Exec {
		b[2] = 'x'
	}
	return string(b)
}

// FromMode reads the owner bits of perm. It is used for entries created by
// this process, which are owned by the effective user.
func FromMode(perm fs.FileMode) Permissions {
	return fromBits(uint32(perm.Perm()), 6)
}

// FromFileInfo resolves the permissions of info for the effective user,
// picking the owner, group or other bits the way the kernel would.
func FromFileInfo(info os.FileInfo) Permissions {
	if info == nil {
		return Permissions{}
	}
	mode := uint32(info.Mode().Perm())
	uid, gid, ok := owner(info)
	if !ok {
		return fromBits(mode, 6)
	}
	return resolve(mode, uid, gid)
}

func fromBits(mode uint32, shift uint) Permissions {
	bits := (mode >> shift) & 0o7
	return Permissions{
		Read:  bits&0o4 != 0,
		Write: bits&0o2 != 0,
		Exec:  bits&0o1 != 0,
	}
}
