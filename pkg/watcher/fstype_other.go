//go:build !linux

package watcher

// DetectFilesystemType returns FSTypeUnknown; only Linux is classified.
func DetectFilesystemType(path string) FilesystemType {
	return FSTypeUnknown
}
