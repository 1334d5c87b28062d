package timeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ChangeSignature is a cheap project-wide fingerprint used by the watch loop
// to decide whether a publish cycle is worth attempting.
type ChangeSignature struct {
	LatestMTimeNS int64
	FileCount     int
}

// ProjectSignature folds the newest modification time and the count of
// drawable files (png and txt) under projectDir. A missing directory yields
// the zero signature.
func ProjectSignature(projectDir string) ChangeSignature {
	var sig ChangeSignature
	if _, err := os.Stat(projectDir); err != nil {
		return sig
	}
	_ = filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png", ".txt":
		default:
			return nil
		}
		sig.FileCount++
		info, err := d.Info()
		if err != nil {
			// File vanished mid-walk; it still counts toward the churn.
			return nil
		}
		if ns := info.ModTime().UnixNano(); ns > sig.LatestMTimeNS {
			sig.LatestMTimeNS = ns
		}
		return nil
	})
	return sig
}

// ResolveProjectDir locates the project directory under root, accepting both
// <root>/<name>/data.txt and the doubled <root>/<name>/<name>/data.txt layout
// the drawing tool exports. The nested layout is returned when neither holds
// a data file, matching where a future sync would place it.
func ResolveProjectDir(root, projectName string) string {
	direct := filepath.Join(root, projectName)
	nested := filepath.Join(root, projectName, projectName)
	if _, err := os.Stat(filepath.Join(direct, DataFileName)); err == nil {
		return direct
	}
	if _, err := os.Stat(filepath.Join(nested, DataFileName)); err == nil {
		return nested
	}
	return nested
}
