// Package cfg decodes raw [http.services.<name>] maps into typed service
// settings.
package cfg

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Setter is implemented by settings structs that fill in their own defaults.
type Setter interface {
	ApplyDefaults()
}

// newDecoder builds a decoder that accepts duration strings ("10s") and
// converts between the numeric types TOML produces.
func newDecoder(c any, md *mapstructure.Metadata) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         md,
		Result:           c,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
}

// Decode decodes input into the pointer c. A nil input leaves c at its zero
// value. If c implements Setter, ApplyDefaults() is called afterwards.
func Decode(input map[string]any, c any) error {
	_, err := decode(input, c, nil)
	return err
}

// DecodeWithUnused decodes input into c and returns the unused keys, sorted,
// so the caller can warn about them.
func DecodeWithUnused(input map[string]any, c any) ([]string, error) {
	var md mapstructure.Metadata
	return decode(input, c, &md)
}

// MustDecodeStrict decodes input into c and fails if any key is unused.
func MustDecodeStrict(input map[string]any, c any) error {
	unused, err := DecodeWithUnused(input, c)
	if err != nil {
		return err
	}
	if len(unused) > 0 {
		return fmt.Errorf("unused config keys: %v", unused)
	}
	return nil
}

func decode(input map[string]any, c any, md *mapstructure.Metadata) ([]string, error) {
	decoder, err := newDecoder(c, md)
	if err != nil {
		return nil, err
	}
	if input != nil {
		if err := decoder.Decode(input); err != nil {
			return nil, fmt.Errorf("decode service config: %w", err)
		}
	}

	if s, ok := c.(Setter); ok {
		s.ApplyDefaults()
	}

	if md == nil {
		return nil, nil
	}
	unused := md.Unused
	sort.Strings(unused)
	return unused, nil
}
