package models

// LocalVideo points at a video file on the local filesystem. It exists only
// between pick and successful upload and is never persisted.
type LocalVideo struct {
	Path        string
	DisplayName string
}
