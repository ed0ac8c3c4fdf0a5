package codecs

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/stretchr/testify/require"
)

// gradient returns an opaque image with far more than 256 colors.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 5), B: uint8((x + y) * 3), A: 0xff})
		}
	}
	return img
}

// twoTone returns an opaque image with exactly two colors.
func twoTone(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 0x20, G: 0x40, B: 0x80, A: 0xff}
			if x < w/2 {
				c = color.NRGBA{R: 0xf0, G: 0xe0, B: 0x10, A: 0xff}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// transparent returns an image whose left half is fully transparent black.
func transparent(w, h int) *image.NRGBA {
	img := gradient(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodePayload(t *testing.T, data []byte) *engine.ImagePayload {
	t.Helper()
	payload, err := imageDecoder{}.Decode(t.Context(), data)
	require.NoError(t, err)
	return payload
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

// installFakeTool puts a shell script called name first in PATH. The script
// records its arguments in args.txt, in the returned directory, then runs body.
func installFakeTool(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > \"" + filepath.Join(dir, "args.txt") + "\"\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return dir
}
