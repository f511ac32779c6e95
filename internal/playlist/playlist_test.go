package playlist

import (
	"os"
	"path/filepath"
	"testing"

	"mediastore-bridge/internal/mediatypes"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestParseWPL(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "songs", "one.mp3"), "x")
	writeFile(t, filepath.Join(dir, "clip.mp4"), "x")

	wplPath := filepath.Join(dir, "mix.wpl")
	writeFile(t, wplPath, `<?wpl version="1.0"?>
<smil>
  <head><title>Road Trip</title></head>
  <body>
    <seq>
      <media src="songs\one.mp3"/>
      <media src="C:\Users\me\Videos\clip.mp4"/>
      <media src="..\elsewhere\gone.flac"/>
      <media src=" "/>
    </seq>
  </body>
</smil>`)

	p, err := Parse(wplPath)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if p.Name != "Road Trip" {
		t.Errorf("Name = %q, want %q", p.Name, "Road Trip")
	}
	if p.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", p.Count())
	}
	if p.Missing() != 1 {
		t.Errorf("Missing() = %d, want 1", p.Missing())
	}

	if got := p.Items[0].Path; got != filepath.Join(dir, "songs", "one.mp3") {
		t.Errorf("relative entry resolved to %s", got)
	}
	if p.Items[0].Type != mediatypes.FileTypeAudio {
		t.Errorf("Items[0].Type = %s, want audio", p.Items[0].Type)
	}

	// Drive-letter path found by name next to the playlist.
	if !p.Items[1].Exists || p.Items[1].Path != filepath.Join(dir, "clip.mp4") {
		t.Errorf("Items[1] = %+v, want sibling clip.mp4", p.Items[1])
	}
	if p.Items[1].OrigPath != `C:\Users\me\Videos\clip.mp4` {
		t.Errorf("OrigPath not preserved: %q", p.Items[1].OrigPath)
	}

	if p.Items[2].Exists {
		t.Errorf("Items[2] should be missing: %+v", p.Items[2])
	}
}

func TestParseM3U(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "abs.ogg")
	writeFile(t, abs, "x")
	writeFile(t, filepath.Join(dir, "rel.mp3"), "x")

	m3uPath := filepath.Join(dir, "list.m3u8")
	writeFile(t, m3uPath, "\xef\xbb\xbf#EXTM3U\n"+
		"#PLAYLIST: Evening\n"+
		"#EXTINF:123,Artist - Title\n"+
		"rel.mp3\n"+
		"\n"+
		abs+"\n"+
		"file://"+abs+"\n"+
		"https://radio.example.com/stream\n"+
		"missing.wav\n")

	p, err := Parse(m3uPath)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Name != "Evening" {
		t.Errorf("Name = %q, want Evening", p.Name)
	}
	if p.Count() != 4 {
		t.Fatalf("Count() = %d, want 4 (stream URL skipped)", p.Count())
	}
	if p.Missing() != 1 {
		t.Errorf("Missing() = %d, want 1", p.Missing())
	}
	if p.Items[2].Path != abs {
		t.Errorf("file:// entry resolved to %s, want %s", p.Items[2].Path, abs)
	}
}

func TestParseDefaultsNameToFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Workout Mix.m3u")
	writeFile(t, path, "a.mp3\n")

	p, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Name != "Workout Mix" {
		t.Errorf("Name = %q, want %q", p.Name, "Workout Mix")
	}
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.wpl")
	writeFile(t, bad, "<smil><head>")
	if _, err := Parse(bad); err == nil {
		t.Error("expected error for malformed WPL")
	}

	other := filepath.Join(dir, "list.pls")
	writeFile(t, other, "[playlist]\n")
	if _, err := Parse(other); err == nil {
		t.Error("expected error for unsupported format")
	}

	if _, err := Parse(filepath.Join(dir, "absent.m3u")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestResolveDirectoryIsNotAnEntry(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "album"), 0o755); err != nil {
		t.Fatal(err)
	}
	item := resolve(dir, "album")
	if item.Exists {
		t.Errorf("directory entry reported as existing: %+v", item)
	}
}
