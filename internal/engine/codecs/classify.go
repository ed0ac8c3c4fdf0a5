package codecs

import (
	"fmt"
	"path"
	"strings"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/gabriel-vasile/mimetype"
)

// ClassifyMode selects how entries are recognised as images.
type ClassifyMode string

const (
	// ClassifyAuto treats an entry as an image when either its content or its extension says so.
	ClassifyAuto      ClassifyMode = "auto"
	ClassifyExtension ClassifyMode = "extension"
	ClassifyContent   ClassifyMode = "content"
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".jpe": {}, ".png": {}, ".gif": {}, ".webp": {},
	".bmp": {}, ".tif": {}, ".tiff": {}, ".jxl": {}, ".avif": {},
}

// imageFormats maps sniffed MIME types to the names image.Decode reports.
var imageFormats = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/bmp":  "bmp",
	"image/tiff": "tiff",
	"image/jxl":  "jxl",
	"image/avif": "avif",
}

type Classifier struct {
	mode ClassifyMode
}

func NewClassifier(mode ClassifyMode) (*Classifier, error) {
	switch mode {
	case "":
		mode = ClassifyAuto
	case ClassifyAuto, ClassifyExtension, ClassifyContent:
	default:
		return nil, fmt.Errorf("unsupported classify mode: %s", mode)
	}
	return &Classifier{mode: mode}, nil
}

func (c *Classifier) Classify(name string, data []byte) engine.Classification {
	mime := mimetype.Detect(data)
	byContent := strings.HasPrefix(mime.String(), "image/")
	_, byExtension := imageExtensions[strings.ToLower(path.Ext(name))]

	var isImage bool
	switch c.mode {
	case ClassifyExtension:
		isImage = byExtension
	case ClassifyContent:
		isImage = byContent
	default:
		isImage = byContent || byExtension
	}

	return engine.Classification{
		Image:  isImage,
		Format: imageFormat(mime),
		MIME:   mime.String(),
	}
}

// imageFormat walks up the MIME tree so that e.g. APNG is reported as png.
func imageFormat(mime *mimetype.MIME) string {
	for m := mime; m != nil; m = m.Parent() {
		if format, ok := imageFormats[m.String()]; ok {
			return format
		}
	}
	return ""
}
