package moderation

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

const jpegQuality = 85

// downscale shrinks images wider than maxWidth and re-encodes them as JPEG.
// Anything it cannot decode is returned untouched.
func downscale(data []byte, mediaType string, maxWidth uint) ([]byte, string) {
	if maxWidth == 0 {
		return data, mediaType
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, mediaType
	}
	if uint(img.Bounds().Dx()) <= maxWidth {
		return data, mediaType
	}

	resized := resize.Resize(maxWidth, 0, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return data, mediaType
	}
	return buf.Bytes(), "image/jpeg"
}
