package mediatypes

import (
	"path/filepath"
	"slices"
	"strings"
)

// FileType represents the kind of media a catalog entry holds.
type FileType string

const (
	// FileTypeImage represents an image file.
	FileTypeImage FileType = "image"
	// FileTypeVideo represents a video file.
	FileTypeVideo FileType = "video"
	// FileTypeAudio represents an audio file.
	FileTypeAudio FileType = "audio"
	// FileTypePlaylist represents a playlist file.
	FileTypePlaylist FileType = "playlist"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// AllFileTypes lists every FileType in display order.
var AllFileTypes = []FileType{FileTypeImage, FileTypeVideo, FileTypeAudio, FileTypePlaylist, FileTypeOther}

// DefaultMimeType is reported for extensions missing from the table.
const DefaultMimeType = "application/octet-stream"

type extInfo struct {
	fileType FileType
	mime     string
}

// known is keyed by lowercase extension including the leading dot.
var known = map[string]extInfo{
	".jpg":  {FileTypeImage, "image/jpeg"},
	".jpeg": {FileTypeImage, "image/jpeg"},
	".png":  {FileTypeImage, "image/png"},
	".gif":  {FileTypeImage, "image/gif"},
	".bmp":  {FileTypeImage, "image/bmp"},
	".webp": {FileTypeImage, "image/webp"},
	".tiff": {FileTypeImage, "image/tiff"},
	".tif":  {FileTypeImage, "image/tiff"},
	".heic": {FileTypeImage, "image/heic"},
	".heif": {FileTypeImage, "image/heif"},
	".avif": {FileTypeImage, "image/avif"},
	".dng":  {FileTypeImage, "image/x-adobe-dng"},

	".mp4":  {FileTypeVideo, "video/mp4"},
	".mkv":  {FileTypeVideo, "video/x-matroska"},
	".avi":  {FileTypeVideo, "video/x-msvideo"},
	".mov":  {FileTypeVideo, "video/quicktime"},
	".webm": {FileTypeVideo, "video/webm"},
	".m4v":  {FileTypeVideo, "video/x-m4v"},
	".mpeg": {FileTypeVideo, "video/mpeg"},
	".mpg":  {FileTypeVideo, "video/mpeg"},
	".3gp":  {FileTypeVideo, "video/3gpp"},
	".ts":   {FileTypeVideo, "video/mp2t"},

	".mp3":  {FileTypeAudio, "audio/mpeg"},
	".m4a":  {FileTypeAudio, "audio/mp4"},
	".aac":  {FileTypeAudio, "audio/aac"},
	".flac": {FileTypeAudio, "audio/flac"},
	".ogg":  {FileTypeAudio, "audio/ogg"},
	".opus": {FileTypeAudio, "audio/opus"},
	".wav":  {FileTypeAudio, "audio/wav"},

	".wpl":  {FileTypePlaylist, "application/vnd.ms-wpl"},
	".m3u":  {FileTypePlaylist, "audio/x-mpegurl"},
	".m3u8": {FileTypePlaylist, "application/vnd.apple.mpegurl"},
}

// Extensions returns the sorted extensions classified as t.
func Extensions(t FileType) []string {
	var exts []string
	for ext, info := range known {
		if info.fileType == t {
			exts = append(exts, ext)
		}
	}
	slices.Sort(exts)
	return exts
}

// GetFileType classifies a lowercase extension such as ".jpg".
// Unrecognized extensions are FileTypeOther.
func GetFileType(ext string) FileType {
	if info, ok := known[ext]; ok {
		return info.fileType
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a lowercase extension, or
// DefaultMimeType.
func GetMimeType(ext string) string {
	if info, ok := known[ext]; ok {
		return info.mime
	}
	return DefaultMimeType
}

// Classify returns the FileType and MIME type for a path based on its extension.
func Classify(path string) (FileType, string) {
	ext := strings.ToLower(filepath.Ext(path))
	return GetFileType(ext), GetMimeType(ext)
}

// IsMediaFile reports whether ext (in any case) is a recognized media extension.
func IsMediaFile(ext string) bool {
	return GetFileType(strings.ToLower(ext)) != FileTypeOther
}
