package playlist

import (
	"bufio"
	"bytes"
	"strings"
)

// parseM3U reads plain and extended M3U. Directives other than #PLAYLIST
// are ignored.
func parseM3U(data []byte) (string, []string) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var title string
	var entries []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxPlaylistSize)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "#PLAYLIST:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "#PLAYLIST:"))
		case strings.HasPrefix(line, "#"):
		case strings.Contains(line, "://") && !strings.HasPrefix(line, "file://"):
			// Remote streams have no local file.
		default:
			entries = append(entries, line)
		}
	}
	return title, entries
}
