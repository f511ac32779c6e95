// Package thumbnail renders small JPEG previews for catalogued images and
// videos.
//
// Decoding goes through libvips when it has been started with InitVips,
// since it can shrink JPEGs while decoding. Otherwise images are decoded
// with imaging, with orientation applied and oversized images scaled down
// before the preview is fitted into a Size x Size box. Video previews are
// a single frame extracted by ffmpeg, when it is installed.
//
// Previews are keyed by the MD5 of the source path and written atomically,
// so a reader never observes a partially written file.
package thumbnail
