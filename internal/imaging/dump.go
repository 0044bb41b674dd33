package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/anthonynsimon/bild/imgio"
)

// Dumper writes intermediate stage images to a directory as PNG files named
// <run>-<stage>.png. A Dumper with an empty Dir writes nothing.
type Dumper struct {
	Dir string
	Run string
}

// Enabled reports whether d writes files.
func (d Dumper) Enabled() bool {
	return d.Dir != ""
}

// Save writes img for stage and returns the file path.
func (d Dumper) Save(stage string, img image.Image) (string, error) {
	if !d.Enabled() {
		return "", nil
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create dump directory: %w", err)
	}

	path := filepath.Join(d.Dir, fmt.Sprintf("%s-%s.png", d.Run, stage))
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", stage, err)
	}
	return path, nil
}

// SaveAll writes every non-nil image in stages, in stage name order, and
// returns the written paths keyed by stage.
func (d Dumper) SaveAll(stages map[string]image.Image) (map[string]string, error) {
	if !d.Enabled() {
		return nil, nil
	}

	names := make([]string, 0, len(stages))
	for name, img := range stages {
		if img != nil && !isNilImage(img) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	paths := make(map[string]string, len(names))
	for _, name := range names {
		p, err := d.Save(name, stages[name])
		if err != nil {
			return paths, err
		}
		paths[name] = p
	}
	return paths, nil
}

// isNilImage catches typed nil pointers stored in an image.Image.
func isNilImage(img image.Image) bool {
	switch v := img.(type) {
	case *image.RGBA:
		return v == nil
	case *image.Gray:
		return v == nil
	case *image.NRGBA:
		return v == nil
	}
	return false
}
