// Package playlist parses playlist files found by the catalog indexer.
//
// Supported formats:
//   - WPL (Windows Playlist), the XML format used by Windows Media Player
//   - M3U and M3U8, plain or extended
//
// Entries are resolved against the playlist's directory. Windows paths
// (C:\Music\a.mp3, ..\a.mp3) are normalized, and an entry missing where
// written is looked up by file name next to the playlist. Remote stream
// URLs in M3U files are skipped.
package playlist
