// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfconv/internal/quality"
	"github.com/pdiddy/pdfconv/pkg/types"
)

// qualityFromFlags resolves the image configuration. A named preset is used
// as is unless --dpi, --encoding, or --compression is given, in which case
// the preset supplies the remaining values and the result is custom.
func qualityFromFlags(cmd *cobra.Command, fallback types.Preset) (types.QualityConfiguration, error) {
	name, _ := cmd.Flags().GetString("preset")
	if name == "" {
		name = string(fallback)
	}
	preset, err := quality.ParsePreset(name)
	if err != nil {
		return types.QualityConfiguration{}, err
	}

	custom := preset == types.PresetCustom ||
		cmd.Flags().Changed("dpi") ||
		cmd.Flags().Changed("encoding") ||
		cmd.Flags().Changed("compression")
	if !custom {
		return quality.Resolve(preset)
	}

	base := types.PresetMedium
	if preset != types.PresetCustom {
		base = preset
	}
	q, err := quality.Resolve(base)
	if err != nil {
		return types.QualityConfiguration{}, err
	}
	params := quality.CustomQuality{DPI: q.DPI, Encoding: string(q.Encoding), Compression: q.Compression}
	if params.Compression == 0 {
		params.Compression = 85
	}
	if cmd.Flags().Changed("dpi") {
		params.DPI, _ = cmd.Flags().GetInt("dpi")
	}
	if cmd.Flags().Changed("encoding") {
		params.Encoding, _ = cmd.Flags().GetString("encoding")
	}
	if cmd.Flags().Changed("compression") {
		params.Compression, _ = cmd.Flags().GetInt("compression")
	}
	return quality.ResolveCustom(params)
}

// destinationFor returns where the output of source goes. out is the
// --out flag, outputDir the configured default, and batch reports whether
// several sources share one invocation, in which case out names a
// directory.
func destinationFor(source string, kind types.OutputKind, out, outputDir string, batch bool) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	dir := outputDir
	if dir == "" {
		dir = "."
	}

	if out != "" && !batch {
		return out
	}
	if out != "" {
		dir = out
	}
	if kind == types.OutputImage {
		return filepath.Join(dir, stem)
	}
	return dir
}
