package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/cb2cbz/cb2cbz/internal/engine"
)

// ExpandTemplates expands ${VAR} references in place in the struct pointed to by in.
// Only fields tagged `template:""` are expanded; `template:"-"` or no tag leaves them
// alone. Supported tagged field types are string, *string, []string and
// map[string]string (values only). Nested structs, struct pointers and slices of
// structs are always walked so their own tagged fields are reached. Unexported
// fields are skipped.
func ExpandTemplates[T any](in *T, variables map[string]string) error {
	if in == nil {
		return nil
	}
	v := reflect.ValueOf(in).Elem()
	switch v.Kind() {
	case reflect.Struct, reflect.Slice:
		return expandValue(v, false, variables)
	default:
		return fmt.Errorf("ExpandTemplates expects *struct or *[]struct; got *%s", v.Type())
	}
}

// expandValue expands v. tagged reports whether the field holding v carries a
// template tag, which is required before any string is rewritten.
func expandValue(v reflect.Value, tagged bool, variables map[string]string) error {
	switch v.Kind() {
	case reflect.String:
		if !tagged {
			return nil
		}
		expanded, err := Expand(v.String(), variables)
		if err != nil {
			return err
		}
		v.SetString(expanded)

	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		if v.Elem().Kind() == reflect.String {
			if !tagged {
				return nil
			}
			// replace the pointer so a string shared with the caller is not modified
			expanded, err := Expand(v.Elem().String(), variables)
			if err != nil {
				return err
			}
			ptr := reflect.New(v.Elem().Type())
			ptr.Elem().SetString(expanded)
			v.Set(ptr)
			return nil
		}
		return expandValue(v.Elem(), tagged, variables)

	case reflect.Map:
		if !tagged || v.IsNil() || v.Type().Key().Kind() != reflect.String || v.Type().Elem().Kind() != reflect.String {
			return nil
		}
		expanded, err := ExpandMap(v.Interface().(map[string]string), variables)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(expanded))

	case reflect.Slice:
		var errs error
		for i := 0; i < v.Len(); i++ {
			errs = errors.Join(errs, expandValue(v.Index(i), tagged, variables))
		}
		return errs

	case reflect.Struct:
		typ := v.Type()
		var errs error
		for i := 0; i < typ.NumField(); i++ {
			sf := typ.Field(i)
			if !sf.IsExported() {
				continue
			}
			tag, ok := sf.Tag.Lookup("template")
			errs = errors.Join(errs, expandValue(v.Field(i), ok && tag != "-", variables))
		}
		return errs
	}
	return nil
}

// Expand replaces ${VAR} references in value using variables.
// Every reference to an undefined variable is reported.
func Expand(value string, variables map[string]string) (string, error) {
	var errs error

	result := os.Expand(value, func(key string) string {
		if val, ok := variables[key]; ok {
			return val
		}
		errs = errors.Join(errs, fmt.Errorf("variable %q is not defined", key))
		return ""
	})

	if errs != nil {
		return "", errs
	}

	return result, nil
}

// ExpandMap expands all values of a map[string]string into a new map.
func ExpandMap(values map[string]string, variables map[string]string) (map[string]string, error) {
	if values == nil {
		return nil, nil
	}

	result := make(map[string]string, len(values))
	var errs error

	for k, v := range values {
		expanded, err := Expand(v, variables)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		result[k] = expanded
	}

	if errs != nil {
		return nil, errs
	}

	return result, nil
}

// BuildVariables creates the variables available to output templates for one source.
// Allowed environment variables are read as well; an unset one is an error.
func BuildVariables(sourcePath string, format engine.ImageFormat, allowedEnv []string) (map[string]string, error) {
	name := filepath.Base(sourcePath)
	variables := map[string]string{
		"SOURCE_DIR":   filepath.Dir(sourcePath),
		"SOURCE_NAME":  name,
		"SOURCE_STEM":  strings.TrimSuffix(name, filepath.Ext(name)),
		"IMAGE_FORMAT": string(format),
		"DATE_ISO8601": time.Now().UTC().Format(engine.ISO8601Basic),
	}

	var errs error
	for _, envName := range allowedEnv {
		if _, builtin := variables[envName]; builtin {
			errs = errors.Join(errs, fmt.Errorf("environment variable %q shadows a built-in variable", envName))
			continue
		}
		val, ok := os.LookupEnv(envName)
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("environment variable %q is not set", envName))
			continue
		}
		variables[envName] = val
	}

	if errs != nil {
		return nil, errs
	}

	return variables, nil
}
