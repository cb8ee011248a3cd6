// Package ingest loads profile images from disk or raw bytes. PNG, JPEG, GIF
// and BMP are accepted; everything else is an INVALID_IMAGE error.
package ingest

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"

	"github.com/watanaberin/retro-bio/pkg/errors"
)

// Decode reads an image in any supported format.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode image")
	}
	return img, nil
}

// Load reads and decodes the image at path.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open image %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "open image %s", path)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode image %s", path)
	}
	return img, nil
}

// DataURI encodes an image as a base64 PNG data URI for embedding in vector
// output.
func DataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", errors.Wrap(errors.ErrCodeEncoding, err, "encode image for embedding")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
