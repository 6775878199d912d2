package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/tuaneric255-blip/Imaxai/internal/config"
	"github.com/tuaneric255-blip/Imaxai/internal/format"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
)

// runID returns a short random id used to keep generated file names unique.
func runID() string {
	return uuid.NewString()[:8]
}

// slug turns a shot or tool name into a file-name fragment.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// saveArtifact writes a to output (or defaultBase plus the artifact's
// extension in outputDir) and returns the final path.
// It never overwrites an existing file.
func saveArtifact(a media.Artifact, output, outputDir, defaultBase string) (string, error) {
	path := config.ResolveOutputPath(config.ExpandPath(output), outputDir, defaultBase+a.Extension())
	if err := a.WriteFile(path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%s: %w", path, ErrOutputExists)
		}
		return "", err
	}
	return path, nil
}

// reportSaved prints the saved path with its size.
func reportSaved(w io.Writer, path string, a media.Artifact) {
	fmt.Fprintf(w, "Saved: %s (%s)\n", path, format.Size(int64(len(a.Data))))
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
