// Package doctypes provides shared type definitions and utilities for
// classifying library files across the manga shelf application.
//
// This package exists as a dependency-free foundation that can be imported
// by other packages without creating import cycles. It contains primitive
// types, constants, and pure utility functions only.
//
// Use GetFileType to classify a file by extension:
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	fileType := doctypes.GetFileType(ext)
//
// Use GetMimeType for HTTP responses, and IsVolume / IsCover for the
// common case-insensitive filename checks.
package doctypes
