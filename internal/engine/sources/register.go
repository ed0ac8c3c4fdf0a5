package sources

import (
	"github.com/cb2cbz/cb2cbz/internal/engine"
)

func Register(registry *engine.Registry) {
	registry.RegisterSource(engine.FormatRAR, NewRARSource)
	registry.RegisterSource(engine.Format7z, NewSevenZipSource)
	registry.RegisterSource(engine.FormatZip, NewZipSource)
	for _, format := range TarFormats {
		registry.RegisterSource(format, NewTarSourceFactory(format))
	}
}
