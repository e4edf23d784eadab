package mocksz

import "golang.org/x/sys/unix"

// threadID identifies the calling OS thread, which keys the error slots the
// same way the native library's thread-local storage does.
func threadID() int { return unix.Gettid() }
