package sftpclient

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// nativeFS is the native filesystem with paths used exactly as given, so
// relative paths resolve against the working directory.
type nativeFS struct {
	osfs.ChrootOS
}

// Chroot returns a filesystem rooted at path.
//
//nolint:ireturn // signature is dictated by billy.Chroot.
func (*nativeFS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

// Root returns the root path for this filesystem.
func (*nativeFS) Root() string {
	return "/"
}

// NativeFS returns the default local filesystem of a Client.
//
//nolint:ireturn // callers only need billy.Filesystem.
func NativeFS() billy.Filesystem {
	return &nativeFS{}
}
