package capture

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/pacer/internal/domain/model"
)

// WebMMIME is the container type produced by the capture backends.
const WebMMIME = "video/webm"

// Artifact is a playable video on disk.
type Artifact struct {
	Path string
	MIME string
	Size int64
}

// ArtifactFromFile wraps a user-chosen video file.
func ArtifactFromFile(path string) (Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("capture: %w", err)
	}
	if !info.Mode().IsRegular() {
		return Artifact{}, fmt.Errorf("%w: %s", ErrNotVideo, path)
	}
	return Artifact{Path: path, MIME: mimeFor(path), Size: info.Size()}, nil
}

// URL returns a file URL for the artifact.
func (a Artifact) URL() string {
	abs, err := filepath.Abs(a.Path)
	if err != nil {
		abs = a.Path
	}
	return "file://" + filepath.ToSlash(abs)
}

// Part loads the artifact as an upload part.
func (a Artifact) Part() (*model.Part, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("capture: read artifact: %w", err)
	}
	return &model.Part{
		Data:     data,
		Size:     int64(len(data)),
		MIME:     a.MIME,
		Filename: filepath.Base(a.Path),
	}, nil
}

func mimeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".webm":
		return WebMMIME
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
