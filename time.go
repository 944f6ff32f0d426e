package sfs

import "time"

// currentTime returns the current time as a Unix timestamp, the resolution
// the on-disk inode record stores (spec.md §3).
func currentTime() int64 {
	return time.Now().Unix()
}
