// Package media loads user images for upload and represents generated
// artifacts.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/gif"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

// DefaultMIMEType is assumed for generated images that carry no type.
const DefaultMIMEType = "image/png"

// jpegQuality is used when re-encoding unsupported inputs.
const jpegQuality = 95

// ErrUnsupportedImage indicates an input that is neither accepted by the
// provider nor convertible.
var ErrUnsupportedImage = errors.New("unsupported image format")

// ErrInvalidDataURI indicates a malformed data: URI.
var ErrInvalidDataURI = errors.New("invalid data URI")

// supported lists the types the provider accepts as-is.
var supported = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// Supported reports whether mime is accepted by the provider without conversion.
func Supported(mime string) bool {
	return supported[mime]
}

// Image is an input image ready for upload.
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURI renders the image as data:<mime>;base64,<payload>.
func (i Image) DataURI() string {
	return dataURI(i.MIMEType, i.Data)
}

// Artifact is a generated image. It is produced per successful call and
// never cached.
type Artifact struct {
	Data     []byte
	MIMEType string
}

// DataURI renders the artifact as data:<mime>;base64,<payload>.
func (a Artifact) DataURI() string {
	return dataURI(a.MIMEType, a.Data)
}

// Extension returns the file extension for the artifact's type, ".png" when unknown.
func (a Artifact) Extension() string {
	return ExtensionFor(a.MIMEType)
}

// ExtensionFor returns the usual file extension for mime, ".png" when unknown.
func ExtensionFor(mime string) string {
	if m := mimetype.Lookup(mime); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".png"
}

// WriteFile writes the artifact bytes to a new file at path.
// It fails with an error wrapping os.ErrExist if path already exists.
// On write failure, the partial file is removed.
func (a Artifact) WriteFile(path string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.Write(a.Data); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}
	return nil
}

func dataURI(mime string, data []byte) string {
	if mime == "" {
		mime = DefaultMIMEType
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Prepare sniffs data and returns an Image the provider accepts.
// GIF input is re-encoded as JPEG; other unsupported types are rejected.
func Prepare(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty input", ErrUnsupportedImage)
	}

	mt := mimetype.Detect(data)
	mime := mt.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}

	if supported[mime] {
		return Image{Data: data, MIMEType: mime}, nil
	}
	if mt.Is("image/gif") {
		return gifToJPEG(data)
	}
	return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, mime)
}

// gifToJPEG re-encodes the first frame of a GIF as JPEG.
func gifToJPEG(data []byte) (Image, error) {
	img, err := gif.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: decode gif: %v", ErrUnsupportedImage, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Image{Data: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}

// Load reads and prepares the image at path.
func Load(path string) (Image, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided input path
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	img, err := Prepare(data)
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// LoadAll loads paths concurrently, preserving order.
// The first failure cancels the remaining loads.
func LoadAll(ctx context.Context, paths []string) ([]Image, error) {
	images := make([]Image, len(paths))
	g, ctx := errgroup.WithContext(ctx)

	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := Load(p)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// ParseDataURI decodes data:<mime>;base64,<payload>. A bare base64 payload
// is accepted too; its type is sniffed. The result goes through Prepare.
func ParseDataURI(s string) (Image, error) {
	payload := s
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, body, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return Image{}, ErrInvalidDataURI
		}
		payload = body
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return Prepare(data)
}
