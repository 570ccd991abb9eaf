// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality resolves named presets and custom parameters into concrete
// image-rendering configurations and estimates the output size they produce.
// Everything here is pure: no I/O and no shared state.
package quality

import (
	"fmt"
	"strings"

	"github.com/pdiddy/pdfconv/pkg/types"
)

// presets maps each named preset to its fixed tuple. These tuples are the
// only normative quality parameters.
var presets = map[types.Preset]types.QualityConfiguration{
	types.PresetLow:    {Preset: types.PresetLow, DPI: 72, Encoding: types.EncodingJPEG, Compression: 60},
	types.PresetMedium: {Preset: types.PresetMedium, DPI: 150, Encoding: types.EncodingJPEG, Compression: 85},
	types.PresetHigh:   {Preset: types.PresetHigh, DPI: 200, Encoding: types.EncodingJPEG, Compression: 95},
	types.PresetUltra:  {Preset: types.PresetUltra, DPI: 300, Encoding: types.EncodingPNG},
}

// CustomQuality holds manually supplied rendering parameters.
type CustomQuality struct {
	DPI         int
	Encoding    string
	Compression int
}

// ParsePreset maps a case-insensitive preset name to a Preset.
func ParsePreset(s string) (types.Preset, error) {
	p := types.Preset(strings.ToLower(strings.TrimSpace(s)))
	if p == types.PresetCustom {
		return p, nil
	}
	if _, ok := presets[p]; !ok {
		return "", &types.InvalidConfigurationError{
			Field:  "preset",
			Reason: fmt.Sprintf("unknown preset %q (want low, medium, high, ultra, or custom)", s),
		}
	}
	return p, nil
}

// Resolve returns the configuration for a named preset.
func Resolve(p types.Preset) (types.QualityConfiguration, error) {
	cfg, ok := presets[p]
	if !ok {
		return types.QualityConfiguration{}, &types.InvalidConfigurationError{
			Field:  "preset",
			Reason: fmt.Sprintf("unknown preset %q", p),
		}
	}
	return cfg, nil
}

// ResolveCustom validates manually supplied parameters. Out-of-range values
// fail with InvalidConfigurationError rather than being clamped. PNG drops
// the compression value since it is lossless.
func ResolveCustom(c CustomQuality) (types.QualityConfiguration, error) {
	enc, err := types.ParseEncoding(c.Encoding)
	if err != nil {
		return types.QualityConfiguration{}, err
	}
	cfg := types.QualityConfiguration{
		Preset:      types.PresetCustom,
		DPI:         c.DPI,
		Encoding:    enc,
		Compression: c.Compression,
	}
	if enc == types.EncodingPNG {
		cfg.Compression = 0
	}
	if err := cfg.Validate(); err != nil {
		return types.QualityConfiguration{}, err
	}
	return cfg, nil
}
