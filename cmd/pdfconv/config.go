// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfconv/pkg/types"
)

// setDefaults registers every configuration key so AutomaticEnv can resolve
// PDFCONV_* variables for keys absent from the config file.
func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("conversion.workers", d.Conversion.Workers)
	v.SetDefault("conversion.delegate_timeout", d.Conversion.DelegateTimeout)
	v.SetDefault("conversion.per_page_timeout", d.Conversion.PerPageTimeout)
	v.SetDefault("conversion.request_timeout", d.Conversion.RequestTimeout)
	v.SetDefault("conversion.strict_validation", d.Conversion.StrictValidation)
	v.SetDefault("conversion.scratch_dir", d.Conversion.ScratchDir)

	v.SetDefault("converter.backend", string(d.Converter.Backend))
	v.SetDefault("converter.pandoc_path", d.Converter.PandocPath)
	v.SetDefault("converter.image", d.Converter.Image)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)

	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.max_retries", d.Fetch.MaxRetries)
	v.SetDefault("fetch.max_bytes", humanize.IBytes(uint64(d.Fetch.MaxBytes)))

	v.SetDefault("defaults.preset", string(d.Defaults.Preset))
	v.SetDefault("defaults.output_dir", d.Defaults.OutputDir)
}

// loadConfig builds a types.Config from v. Values are read key by key so
// durations accept both "90s" strings and integer nanoseconds, and
// fetch.max_bytes accepts sizes such as "50MB".
func loadConfig(v *viper.Viper) (types.Config, error) {
	c := types.Config{
		Conversion: types.ConversionConfig{
			Workers:          v.GetInt("conversion.workers"),
			DelegateTimeout:  v.GetDuration("conversion.delegate_timeout"),
			PerPageTimeout:   v.GetDuration("conversion.per_page_timeout"),
			RequestTimeout:   v.GetDuration("conversion.request_timeout"),
			StrictValidation: v.GetBool("conversion.strict_validation"),
			ScratchDir:       v.GetString("conversion.scratch_dir"),
		},
		Converter: types.ConverterConfig{
			Backend:    types.ConverterBackend(strings.ToLower(v.GetString("converter.backend"))),
			PandocPath: v.GetString("converter.pandoc_path"),
			Image:      v.GetString("converter.image"),
		},
		Log: types.LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		History: types.HistoryConfig{
			Enabled: v.GetBool("history.enabled"),
			Path:    v.GetString("history.path"),
		},
		Fetch: types.FetchConfig{
			Timeout:    v.GetDuration("fetch.timeout"),
			MaxRetries: v.GetInt("fetch.max_retries"),
		},
		Defaults: types.DefaultsConfig{
			Preset:    types.Preset(strings.ToLower(v.GetString("defaults.preset"))),
			OutputDir: v.GetString("defaults.output_dir"),
		},
	}

	maxBytes, err := humanize.ParseBytes(v.GetString("fetch.max_bytes"))
	if err != nil {
		return c, &types.InvalidConfigurationError{Field: "fetch.max_bytes", Reason: err.Error()}
	}
	c.Fetch.MaxBytes = int64(maxBytes)

	if c.Conversion.Workers < 0 {
		return c, &types.InvalidConfigurationError{Field: "conversion.workers", Reason: "must not be negative"}
	}
	if c.Conversion.DelegateTimeout <= 0 {
		return c, &types.InvalidConfigurationError{Field: "conversion.delegate_timeout", Reason: "must be positive"}
	}
	if c.Conversion.PerPageTimeout < 0 {
		return c, &types.InvalidConfigurationError{Field: "conversion.per_page_timeout", Reason: "must not be negative"}
	}
	if c.Conversion.RequestTimeout < 0 {
		return c, &types.InvalidConfigurationError{Field: "conversion.request_timeout", Reason: "must not be negative"}
	}
	return c, nil
}
