package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tuaneric255-blip/Imaxai/internal/media"
)

// parseAssignments parses repeated name=value flag values.
// Later assignments to the same name win.
func parseAssignments(flag string, values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --%s %q: %w", flag, v, ErrInvalidAssignment)
		}
		out[name] = value
	}
	return out, nil
}

// checkFile verifies path exists and is a regular file.
func checkFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, ErrFileNotFound)
	}
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory: %w", path, ErrFileNotFound)
	}
	return nil
}

// loadSlots loads slot=path assignments into images keyed by slot.
func loadSlots(ctx context.Context, slots map[string]string) (map[string]media.Image, error) {
	names := make([]string, 0, len(slots))
	for name := range slots {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = slots[name]
		if err := checkFile(paths[i]); err != nil {
			return nil, err
		}
	}

	images, err := media.LoadAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	out := make(map[string]media.Image, len(names))
	for i, name := range names {
		out[name] = images[i]
	}
	return out, nil
}

// loadOptional loads path when set.
func loadOptional(path string) (*media.Image, error) {
	if path == "" {
		return nil, nil
	}
	if err := checkFile(path); err != nil {
		return nil, err
	}
	img, err := media.Load(path)
	if err != nil {
		return nil, err
	}
	return &img, nil
}
