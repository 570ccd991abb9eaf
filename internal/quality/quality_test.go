// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfconv/pkg/types"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		preset types.Preset
		want   types.QualityConfiguration
	}{
		{types.PresetLow, types.QualityConfiguration{Preset: types.PresetLow, DPI: 72, Encoding: types.EncodingJPEG, Compression: 60}},
		{types.PresetMedium, types.QualityConfiguration{Preset: types.PresetMedium, DPI: 150, Encoding: types.EncodingJPEG, Compression: 85}},
		{types.PresetHigh, types.QualityConfiguration{Preset: types.PresetHigh, DPI: 200, Encoding: types.EncodingJPEG, Compression: 95}},
		{types.PresetUltra, types.QualityConfiguration{Preset: types.PresetUltra, DPI: 300, Encoding: types.EncodingPNG}},
	}
	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			got, err := Resolve(tt.preset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			require.NoError(t, got.Validate())
		})
	}
}

func TestResolve_Stable(t *testing.T) {
	first, err := Resolve(types.PresetMedium)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Resolve(types.PresetMedium)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 150, first.DPI)
	assert.Equal(t, types.EncodingJPEG, first.Encoding)
	assert.Equal(t, 85, first.Compression)
}

func TestResolve_Unknown(t *testing.T) {
	_, err := Resolve("extreme")
	var cfgErr *types.InvalidConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "preset", cfgErr.Field)
}

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset(" High ")
	require.NoError(t, err)
	assert.Equal(t, types.PresetHigh, p)

	p, err = ParsePreset("custom")
	require.NoError(t, err)
	assert.Equal(t, types.PresetCustom, p)

	_, err = ParsePreset("best")
	assert.Error(t, err)
}

func TestResolveCustom(t *testing.T) {
	tests := []struct {
		name      string
		in        CustomQuality
		wantField string
		want      types.QualityConfiguration
	}{
		{
			name: "valid jpeg",
			in:   CustomQuality{DPI: 150, Encoding: "jpeg", Compression: 70},
			want: types.QualityConfiguration{Preset: types.PresetCustom, DPI: 150, Encoding: types.EncodingJPEG, Compression: 70},
		},
		{
			name: "png ignores compression",
			in:   CustomQuality{DPI: 96, Encoding: "PNG", Compression: 500},
			want: types.QualityConfiguration{Preset: types.PresetCustom, DPI: 96, Encoding: types.EncodingPNG},
		},
		{name: "dpi zero", in: CustomQuality{DPI: 0, Encoding: "jpeg", Compression: 80}, wantField: "dpi"},
		{name: "dpi 1000", in: CustomQuality{DPI: 1000, Encoding: "jpeg", Compression: 80}, wantField: "dpi"},
		{name: "dpi just below bound", in: CustomQuality{DPI: 35, Encoding: "png"}, wantField: "dpi"},
		{name: "compression zero", in: CustomQuality{DPI: 150, Encoding: "jpg", Compression: 0}, wantField: "compression"},
		{name: "compression 101", in: CustomQuality{DPI: 150, Encoding: "jpg", Compression: 101}, wantField: "compression"},
		{name: "unknown encoding", in: CustomQuality{DPI: 150, Encoding: "webp", Compression: 80}, wantField: "encoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCustom(tt.in)
			if tt.wantField != "" {
				var cfgErr *types.InvalidConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, tt.wantField, cfgErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimate_LowPresetFivePages(t *testing.T) {
	cfg, err := Resolve(types.PresetLow)
	require.NoError(t, err)

	r := Estimate(5, cfg)
	assert.GreaterOrEqual(t, r.Min, int64(100_000))
	assert.LessOrEqual(t, r.Max, int64(600_000))
	assert.True(t, r.Contains(r.Expected))
}

func TestEstimate_Scaling(t *testing.T) {
	medium, _ := Resolve(types.PresetMedium)
	high, _ := Resolve(types.PresetHigh)
	ultra, _ := Resolve(types.PresetUltra)

	one := Estimate(1, medium)
	ten := Estimate(10, medium)
	assert.InDelta(t, float64(one.Expected*10), float64(ten.Expected), 10)

	assert.Less(t, Estimate(3, medium).Expected, Estimate(3, high).Expected)
	assert.Less(t, Estimate(3, high).Expected, Estimate(3, ultra).Expected)

	// Lower JPEG quality costs less at the same resolution.
	lossy := medium
	lossy.Compression = 40
	assert.Less(t, Estimate(1, lossy).Expected, one.Expected)
}

func TestEstimate_Degenerate(t *testing.T) {
	medium, _ := Resolve(types.PresetMedium)
	assert.Equal(t, types.SizeRange{}, Estimate(0, medium))
	assert.Equal(t, types.SizeRange{}, Estimate(3, types.QualityConfiguration{}))
}
