package doctypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the type of a library file.
type FileType string

const (
	// FileTypeSeries represents a series directory.
	FileTypeSeries FileType = "series"
	// FileTypeVolume represents a PDF volume.
	FileTypeVolume FileType = "volume"
	// FileTypeCover represents a series cover image.
	FileTypeCover FileType = "cover"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// VolumeExtensions maps file extensions to whether they are supported
// document formats.
var VolumeExtensions = map[string]bool{
	".pdf": true,
}

// CoverExtensions maps file extensions to whether they are supported
// series cover image formats.
var CoverExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// CoverPriority orders cover extensions for the case where a series
// directory carries several covers; the first match wins.
var CoverPriority = []string{".jpg", ".jpeg", ".png", ".webp"}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// GetFileType returns the FileType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".pdf").
// Returns FileTypeOther if the extension is not recognized.
func GetFileType(ext string) FileType {
	if VolumeExtensions[ext] {
		return FileTypeVolume
	}
	if CoverExtensions[ext] {
		return FileTypeCover
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsVolume returns true if the filename names a supported document.
// Matching is case-insensitive, so "Vol1.PDF" counts.
func IsVolume(name string) bool {
	return VolumeExtensions[strings.ToLower(filepath.Ext(name))]
}

// CoverBasename is the filename stem a series directory may carry to
// override the generated cover thumbnail.
const CoverBasename = "cover"

// IsCover returns true if the filename is a series cover override
// (cover.jpg, cover.png, ...).
func IsCover(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if !CoverExtensions[ext] {
		return false
	}
	return strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name))) == CoverBasename
}
