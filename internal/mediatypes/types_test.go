package mediatypes

import (
	"slices"
	"testing"
)

func TestGetFileType(t *testing.T) {
	tests := []struct {
		ext  string
		want FileType
	}{
		{".jpg", FileTypeImage},
		{".heic", FileTypeImage},
		{".webp", FileTypeImage},
		{".mp4", FileTypeVideo},
		{".webm", FileTypeVideo},
		{".mp3", FileTypeAudio},
		{".flac", FileTypeAudio},
		{".m3u", FileTypePlaylist},
		{".txt", FileTypeOther},
		{"", FileTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := GetFileType(tt.ext); got != tt.want {
				t.Errorf("GetFileType(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestGetMimeType(t *testing.T) {
	if got := GetMimeType(".jpg"); got != "image/jpeg" {
		t.Errorf("GetMimeType(.jpg) = %q", got)
	}
	if got := GetMimeType(".unknown"); got != "application/octet-stream" {
		t.Errorf("GetMimeType(.unknown) = %q", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path     string
		wantType FileType
		wantMime string
	}{
		{"/storage/emulated/0/Pictures/img1.jpg", FileTypeImage, "image/jpeg"},
		{"/storage/emulated/0/DCIM/CLIP.MP4", FileTypeVideo, "video/mp4"},
		{"/music/song.Opus", FileTypeAudio, "audio/opus"},
		{"/docs/readme", FileTypeOther, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			gotType, gotMime := Classify(tt.path)
			if gotType != tt.wantType || gotMime != tt.wantMime {
				t.Errorf("Classify(%q) = (%q, %q), want (%q, %q)", tt.path, gotType, gotMime, tt.wantType, tt.wantMime)
			}
		})
	}
}

func TestExtensions(t *testing.T) {
	playlists := Extensions(FileTypePlaylist)
	if want := []string{".m3u", ".m3u8", ".wpl"}; !slices.Equal(playlists, want) {
		t.Errorf("Extensions(playlist) = %v, want %v", playlists, want)
	}
	if other := Extensions(FileTypeOther); len(other) != 0 {
		t.Errorf("Extensions(other) = %v, want none", other)
	}
	for _, ft := range AllFileTypes {
		for _, ext := range Extensions(ft) {
			if GetMimeType(ext) == DefaultMimeType {
				t.Errorf("extension %q has no MIME type", ext)
			}
		}
	}
}

func TestIsMediaFile(t *testing.T) {
	if !IsMediaFile(".png") {
		t.Error("expected .png to be a media file")
	}
	if !IsMediaFile(".JPG") {
		t.Error("expected .JPG to be a media file")
	}
	if IsMediaFile(".exe") {
		t.Error("expected .exe not to be a media file")
	}
}
