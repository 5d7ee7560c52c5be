package models

import "time"

// Video is metadata for a clip owned by a user. The binary itself lives
// in external storage; StorageURL is opaque to this service.
type Video struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	StorageURL  string
	Source      string
	CreatedAt   time.Time
}
