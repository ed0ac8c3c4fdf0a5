package codecs

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/samber/lo"
)

const (
	DefaultQuality    = 90
	DefaultPNGQuality = 6
)

// ParseOptionString parses a "name=value,name=value" option string. Names are
// lower-cased; empty items are ignored.
func ParseOptionString(s string) (map[string]string, error) {
	options := make(map[string]string)
	for _, item := range strings.Split(s, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		name, value, _ := strings.Cut(item, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, fmt.Errorf("%s option value is empty", name)
		}
		options[name] = value
	}
	return options, nil
}

// codecOptions validates and reads the options of a single codec.
type codecOptions struct {
	values map[string]string
}

func newCodecOptions(format engine.ImageFormat, values map[string]string, allowed ...string) (codecOptions, error) {
	normalized := make(map[string]string, len(values))
	names := lo.Keys(values)
	slices.Sort(names)
	for _, name := range names {
		key := strings.ToLower(name)
		if !slices.Contains(allowed, key) {
			return codecOptions{}, fmt.Errorf("%s is not a valid option for %s", name, format)
		}
		value := strings.TrimSpace(values[name])
		if value == "" {
			return codecOptions{}, fmt.Errorf("%s option value is empty", name)
		}
		normalized[key] = value
	}
	return codecOptions{values: normalized}, nil
}

func (o codecOptions) bool(name string, def bool) (bool, error) {
	value, ok := o.values[name]
	if !ok {
		return def, nil
	}
	return parseBool(name, value)
}

func (o codecOptions) intRange(name string, def, min, max int) (int, error) {
	value, ok := o.values[name]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("%s value must be an integer between %d and %d", name, min, max)
	}
	return n, nil
}

func (o codecOptions) lookup(name string) (string, bool) {
	value, ok := o.values[name]
	return value, ok
}

func parseBool(name, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf(`%s value must be "1", "0", "true" or "false"`, name)
	}
}

func resolveQuality(quality *int, def, min, max int) (int, error) {
	if quality == nil {
		return def, nil
	}
	if *quality < min || *quality > max {
		return 0, fmt.Errorf("quality must be an int between %d and %d", min, max)
	}
	return *quality, nil
}
