// Package mediatypes classifies files for the media catalog by extension.
//
// It has no dependencies outside the standard library so that the
// database, indexer and thumbnail packages can share it without import
// cycles.
//
//	fileType, mime := mediatypes.Classify("/storage/emulated/0/Pictures/img1.jpg")
//	// fileType == mediatypes.FileTypeImage, mime == "image/jpeg"
package mediatypes
