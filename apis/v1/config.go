package v1

// ConvertConfig is the cb2cbz configuration file. Every field is optional;
// command line flags override the values set here.
type ConvertConfig struct {
	Image   ImageSpec   `yaml:"image,omitempty" json:"image,omitempty"`
	Archive ArchiveSpec `yaml:"archive,omitempty" json:"archive,omitempty"`
	Policy  PolicySpec  `yaml:"policy,omitempty" json:"policy,omitempty"`

	// Output is the destination path. It may reference ${SOURCE_DIR}, ${SOURCE_NAME},
	// ${SOURCE_STEM}, ${IMAGE_FORMAT}, ${DATE_ISO8601} and any variable listed in AllowedEnv.
	Output string `yaml:"output,omitempty" json:"output,omitempty" template:""`

	// AllowedEnv lists environment variables that may be referenced in Output.
	AllowedEnv []string `yaml:"allowed_env,omitempty" json:"allowed_env,omitempty" validate:"dive,required"`
}

// ImageSpec configures image re-encoding.
type ImageSpec struct {
	// Format is the target image format (default: no-change). Case-insensitive;
	// jxl is an alias of jpegxl and jpg of jpeg.
	Format string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=no-change png jpeg jpegli jpegxl"`

	// Quality is 0..100 for jpeg, jpegli and jpegxl, and the zlib level 0..9 for png.
	Quality *int `yaml:"quality,omitempty" json:"quality,omitempty" validate:"omitempty,min=0,max=100"`

	// Options are format specific encoder options, e.g. {effort: "9"} for jpegxl.
	Options map[string]string `yaml:"options,omitempty" json:"options,omitempty"`

	// ForceReencode re-encodes images that are already in the target format.
	ForceReencode bool `yaml:"force_reencode,omitempty" json:"force_reencode,omitempty"`
}

// ArchiveSpec configures the CBZ container.
type ArchiveSpec struct {
	// Compression is store (default) or deflate.
	Compression string `yaml:"compression,omitempty" json:"compression,omitempty" validate:"omitempty,oneof=store deflate"`

	// Level is the deflate level, 1..9 (default: 6).
	Level *int `yaml:"level,omitempty" json:"level,omitempty" validate:"omitempty,min=1,max=9"`
}

// PolicySpec configures how entry level problems are handled.
type PolicySpec struct {
	// Strict makes image decode and encode failures abort the conversion.
	Strict bool `yaml:"strict,omitempty" json:"strict,omitempty"`

	// Classify selects how entries are recognised as images: auto (default), extension or content.
	Classify string `yaml:"classify,omitempty" json:"classify,omitempty" validate:"omitempty,oneof=auto extension content"`

	// Duplicates is warn (default) or error.
	Duplicates string `yaml:"duplicates,omitempty" json:"duplicates,omitempty" validate:"omitempty,oneof=warn error"`
}
