package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mediastore-bridge/internal/mediatypes"
)

// maxPlaylistSize bounds the bytes read from a playlist file.
const maxPlaylistSize = 4 << 20

// Playlist is a parsed playlist file.
type Playlist struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Items []Item `json:"items"`
}

// Item is a single playlist entry.
type Item struct {
	// OrigPath is the entry as written in the playlist.
	OrigPath string `json:"origPath"`
	// Path is the entry resolved to an absolute path.
	Path   string              `json:"path"`
	Type   mediatypes.FileType `json:"type"`
	Exists bool                `json:"exists"`
}

// Count returns the number of entries.
func (p *Playlist) Count() int {
	return len(p.Items)
}

// Missing returns the number of entries whose file does not exist.
func (p *Playlist) Missing() int {
	n := 0
	for _, item := range p.Items {
		if !item.Exists {
			n++
		}
	}
	return n
}

// Parse reads a WPL, M3U or M3U8 playlist.
func Parse(path string) (*Playlist, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxPlaylistSize {
		return nil, fmt.Errorf("playlist %s is too large (%d bytes)", path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var title string
	var entries []string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wpl":
		title, entries, err = parseWPL(data)
	case ".m3u", ".m3u8":
		title, entries = parseM3U(data)
	default:
		err = fmt.Errorf("unsupported playlist format %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	playlist := &Playlist{Name: title, Path: path, Items: make([]Item, 0, len(entries))}
	dir := filepath.Dir(path)
	for _, entry := range entries {
		playlist.Items = append(playlist.Items, resolve(dir, entry))
	}
	return playlist, nil
}

// resolve maps an entry to an absolute path. Windows separators are
// normalized and relative entries are taken relative to the playlist. An
// entry that does not exist where written is looked up by file name next
// to the playlist, which covers playlists copied from another machine.
func resolve(dir, entry string) Item {
	src := strings.ReplaceAll(entry, "\\", "/")
	if u, ok := strings.CutPrefix(src, "file://"); ok {
		src = u
	}

	candidate := src
	if !filepath.IsAbs(candidate) || hasDriveLetter(candidate) {
		candidate = filepath.Join(dir, strings.TrimLeft(stripDrive(candidate), "/"))
	}
	candidate = filepath.Clean(candidate)

	item := Item{OrigPath: entry, Path: candidate}
	if fileExists(candidate) {
		item.Exists = true
	} else if sibling := filepath.Join(dir, filepath.Base(src)); fileExists(sibling) {
		item.Path = sibling
		item.Exists = true
	}
	item.Type, _ = mediatypes.Classify(item.Path)
	return item
}

func hasDriveLetter(p string) bool {
	return len(p) >= 2 && p[1] == ':' && ((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

func stripDrive(p string) string {
	if hasDriveLetter(p) {
		return p[2:]
	}
	return p
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
