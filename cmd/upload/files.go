package main

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fhuszti/uploads-ms-go/internal/orchestrator"
	"github.com/fhuszti/uploads-ms-go/internal/usecase/upload"
)

// loadFiles describes the files at paths. durations holds the length in seconds
// of every video, keyed by file name.
func loadFiles(paths []string, durations map[string]int) ([]orchestrator.File, error) {
	files := make([]orchestrator.File, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s is not a regular file", p)
		}

		contentType, err := detectContentType(p)
		if err != nil {
			return nil, err
		}
		if !upload.IsMimeTypeAllowed(contentType) {
			return nil, fmt.Errorf("%s: content type %q is not accepted", p, contentType)
		}

		name := filepath.Base(p)
		f := orchestrator.File{
			Name:        name,
			ContentType: contentType,
			Size:        info.Size(),
			Open:        opener(p),
		}
		if f.IsVideo() {
			secs, ok := durations[name]
			if !ok || secs <= 0 {
				return nil, fmt.Errorf("%s: video duration missing, pass --video-seconds %s=<seconds>", p, name)
			}
			f.DurationSeconds = secs
		}
		files = append(files, f)
	}
	return files, nil
}

func opener(path string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}

// extensionTypes covers the media types missing from minimal mime tables.
var extensionTypes = map[string]string{
	".heic": "image/heic",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

func detectContentType(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := extensionTypes[ext]; ok {
		return ct, nil
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err == nil {
			return mediaType, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("sniff %s: %w", path, err)
	}
	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(head[:n]))
	if err != nil {
		return "", fmt.Errorf("sniff %s: %w", path, err)
	}
	return mediaType, nil
}
