//go:build !linux

package mocksz

// threadID returns a single shared slot key where no thread id is available.
func threadID() int { return 0 }
