package codecs

import (
	"testing"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionString(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        map[string]string
		errContains string
	}{
		{name: "empty", input: "", want: map[string]string{}},
		{name: "single", input: "effort=9", want: map[string]string{"effort": "9"}},
		{name: "several with spaces", input: "XYB=1, progressive = 0 ,", want: map[string]string{"xyb": "1", "progressive": "0"}},
		{name: "subsampling keeps colons", input: "subsampling=4:2:0", want: map[string]string{"subsampling": "4:2:0"}},
		{name: "empty value", input: "optimize=", errContains: "optimize option value is empty"},
		{name: "missing equals", input: "optimize", errContains: "optimize option value is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptionString(tt.input)
			if tt.errContains != "" {
				require.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "True"} {
		got, err := parseBool("xyb", v)
		require.NoError(t, err)
		assert.True(t, got, v)
	}
	for _, v := range []string{"0", "false", "False"} {
		got, err := parseBool("xyb", v)
		require.NoError(t, err)
		assert.False(t, got, v)
	}

	_, err := parseBool("xyb", "yes")
	assert.EqualError(t, err, `xyb value must be "1", "0", "true" or "false"`)
}

func TestParsePNGOptions(t *testing.T) {
	tests := []struct {
		name        string
		spec        engine.CodecSpec
		want        PNGOptions
		errContains string
	}{
		{name: "defaults", want: PNGOptions{Level: 6}},
		{name: "quality is the zlib level", spec: engine.CodecSpec{Quality: lo.ToPtr(9)}, want: PNGOptions{Level: 9}},
		{name: "optimize", spec: engine.CodecSpec{Options: map[string]string{"optimize": "true"}}, want: PNGOptions{Level: 6, Optimize: true}},
		{name: "quality out of range", spec: engine.CodecSpec{Quality: lo.ToPtr(10)}, errContains: "quality must be an int between 0 and 9"},
		{name: "unknown option", spec: engine.CodecSpec{Options: map[string]string{"effort": "3"}}, errContains: "effort is not a valid option for png"},
		{name: "bad bool", spec: engine.CodecSpec{Options: map[string]string{"optimize": "maybe"}}, errContains: "optimize value must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePNGOptions(tt.spec)
			if tt.errContains != "" {
				require.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJPEGOptions(t *testing.T) {
	got, err := ParseJPEGOptions(engine.CodecSpec{})
	require.NoError(t, err)
	assert.Equal(t, JPEGOptions{Quality: 90}, got)

	got, err = ParseJPEGOptions(engine.CodecSpec{Quality: lo.ToPtr(0), Options: map[string]string{"Grayscale": "1"}})
	require.NoError(t, err)
	assert.Equal(t, JPEGOptions{Quality: 0, Grayscale: true}, got)

	_, err = ParseJPEGOptions(engine.CodecSpec{Quality: lo.ToPtr(101)})
	assert.ErrorContains(t, err, "quality must be an int between 0 and 100")

	_, err = ParseJPEGOptions(engine.CodecSpec{Options: map[string]string{"grayscale": " "}})
	assert.ErrorContains(t, err, "grayscale option value is empty")

	for _, name := range []string{"optimize", "Progressive", "keep_rgb", "subsampling"} {
		_, err = ParseJPEGOptions(engine.CodecSpec{Options: map[string]string{name: "1"}})
		assert.ErrorContains(t, err, name+" is not supported by jpeg, use jpegli", name)
	}
}

func TestParseJPEGXLOptions(t *testing.T) {
	tests := []struct {
		name        string
		spec        engine.CodecSpec
		want        JPEGXLOptions
		errContains string
	}{
		{name: "defaults", want: JPEGXLOptions{Quality: 90, Effort: 7, CJXL: "cjxl", JPEGTranBinary: "jpegtran"}},
		{name: "effort", spec: engine.CodecSpec{Quality: lo.ToPtr(100), Options: map[string]string{"effort": "10"}}, want: JPEGXLOptions{Quality: 100, Effort: 10, CJXL: "cjxl", JPEGTranBinary: "jpegtran"}},
		{
			name: "decoding speed and jpegtran",
			spec: engine.CodecSpec{Options: map[string]string{"Decoding_Speed": "4", "jpegtran": "TRUE"}},
			want: JPEGXLOptions{Quality: 90, Effort: 7, DecodingSpeed: 4, JPEGTran: true, CJXL: "cjxl", JPEGTranBinary: "jpegtran"},
		},
		{name: "decoding speed too high", spec: engine.CodecSpec{Options: map[string]string{"decoding_speed": "5"}}, errContains: "decoding_speed value must be an integer between 0 and 4"},
		{name: "jpegtran not a bool", spec: engine.CodecSpec{Options: map[string]string{"jpegtran": "yes"}}, errContains: `jpegtran value must be "1", "0", "true" or "false"`},
		{name: "effort too low", spec: engine.CodecSpec{Options: map[string]string{"effort": "0"}}, errContains: "effort value must be an integer between 1 and 10"},
		{name: "effort not a number", spec: engine.CodecSpec{Options: map[string]string{"effort": "fast"}}, errContains: "effort value must be an integer"},
		{name: "unknown option", spec: engine.CodecSpec{Options: map[string]string{"optimize": "1"}}, errContains: "optimize is not a valid option for jpegxl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJPEGXLOptions(tt.spec)
			if tt.errContains != "" {
				require.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJPEGLIOptions(t *testing.T) {
	defaults := JPEGLIOptions{Quality: 90, Progressive: 2, AdaptiveQuantization: true, Binary: DefaultCJPEGLIBinary}

	tests := []struct {
		name        string
		options     map[string]string
		want        func(o JPEGLIOptions) JPEGLIOptions
		errContains string
	}{
		{name: "defaults", want: func(o JPEGLIOptions) JPEGLIOptions { return o }},
		{
			name:    "progressive as bool",
			options: map[string]string{"progressive": "false"},
			want:    func(o JPEGLIOptions) JPEGLIOptions { o.Progressive = 0; return o },
		},
		{
			name:    "progressive as level",
			options: map[string]string{"progressive": "1"},
			want:    func(o JPEGLIOptions) JPEGLIOptions { o.Progressive = 1; return o },
		},
		{
			name:    "all flags",
			options: map[string]string{"subsampling": "4:2:0", "xyb": "1", "adaptive_quantization": "0", "std_quant": "true", "fixed_code": "1", "progressive": "0"},
			want: func(o JPEGLIOptions) JPEGLIOptions {
				o.Progressive = 0
				o.Subsampling = "4:2:0"
				o.XYB = true
				o.AdaptiveQuantization = false
				o.StdQuant = true
				o.FixedCode = true
				return o
			},
		},
		{name: "progressive out of range", options: map[string]string{"progressive": "3"}, errContains: `progressive value must be "true", "false", "0", "1" or "2"`},
		{name: "bad subsampling", options: map[string]string{"subsampling": "420"}, errContains: `subsampling value must be "4:4:4", "4:4:0", "4:2:2" or "4:2:0"`},
		{name: "fixed code needs progressive 0", options: map[string]string{"fixed_code": "1"}, errContains: "progressive must be 0 if fixed_code is true"},
		{name: "unknown option", options: map[string]string{"effort": "1"}, errContains: "effort is not a valid option for jpegli"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJPEGLIOptions(engine.CodecSpec{Options: tt.options})
			if tt.errContains != "" {
				require.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want(defaults), got)
		})
	}
}
