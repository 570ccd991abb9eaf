package types

import "time"

// ConversionConfig holds pipeline settings that apply to every request.
type ConversionConfig struct {
	// Workers bounds parallel page rasterization. 0 means min(NumCPU, 8).
	Workers int `json:"workers" yaml:"workers"`

	// DelegateTimeout is the base time allowed for the external document
	// converter (default 60s).
	DelegateTimeout time.Duration `json:"delegate_timeout" yaml:"delegate_timeout"`

	// PerPageTimeout is added to DelegateTimeout for every page (default 1s).
	PerPageTimeout time.Duration `json:"per_page_timeout" yaml:"per_page_timeout"`

	// RequestTimeout bounds a whole request. 0 disables it.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// StrictValidation runs a full structural check of the PDF before
	// conversion, rejecting files the renderer would silently repair.
	StrictValidation bool `json:"strict_validation" yaml:"strict_validation"`

	// ScratchDir is the parent of per-request scratch directories. Empty
	// means the OS temp directory.
	ScratchDir string `json:"scratch_dir" yaml:"scratch_dir"`
}

// ConverterBackend selects how the external document converter runs.
type ConverterBackend string

const (
	BackendAuto      ConverterBackend = "auto"
	BackendPandoc    ConverterBackend = "pandoc"
	BackendContainer ConverterBackend = "container"
)

// ConverterConfig holds settings for the external document converter used
// by the Word, HTML, and Markdown strategies.
type ConverterConfig struct {
	// Backend is auto, pandoc (local binary), or container.
	Backend ConverterBackend `json:"backend" yaml:"backend"`

	// PandocPath overrides the pandoc binary looked up on PATH.
	PandocPath string `json:"pandoc_path" yaml:"pandoc_path"`

	// Image is the container image used by the container backend.
	Image string `json:"image" yaml:"image"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `json:"level" yaml:"level"`

	// Format is console or json.
	Format string `json:"format" yaml:"format"`
}

// HistoryConfig controls the CLI's conversion history log.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// FetchConfig controls downloads of http(s) sources.
type FetchConfig struct {
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	MaxRetries int           `json:"max_retries" yaml:"max_retries"`

	// MaxBytes rejects larger downloads. 0 disables the limit.
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`
}

// DefaultsConfig holds CLI defaults applied when flags are not given.
type DefaultsConfig struct {
	Preset    Preset `json:"preset" yaml:"preset"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// Config groups all settings. The CLI builds one value and passes it down
// explicitly; the pipeline keeps no global configuration.
type Config struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Converter  ConverterConfig  `json:"converter" yaml:"converter"`
	Log        LogConfig        `json:"log" yaml:"log"`
	History    HistoryConfig    `json:"history" yaml:"history"`
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Defaults   DefaultsConfig   `json:"defaults" yaml:"defaults"`
}

// Default values.
const (
	DefaultDelegateTimeout = 60 * time.Second
	DefaultPerPageTimeout  = time.Second
	DefaultConverterImage  = "pandoc/core:3.1"
	MaxWorkers             = 8
	DefaultFetchTimeout    = 2 * time.Minute
	DefaultFetchRetries    = 3
	DefaultFetchMaxBytes   = 200 << 20
)

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		Conversion: ConversionConfig{
			DelegateTimeout: DefaultDelegateTimeout,
			PerPageTimeout:  DefaultPerPageTimeout,
		},
		Converter: ConverterConfig{
			Backend: BackendAuto,
			Image:   DefaultConverterImage,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Fetch: FetchConfig{
			Timeout:    DefaultFetchTimeout,
			MaxRetries: DefaultFetchRetries,
			MaxBytes:   DefaultFetchMaxBytes,
		},
		Defaults: DefaultsConfig{
			Preset:    PresetMedium,
			OutputDir: ".",
		},
	}
}
