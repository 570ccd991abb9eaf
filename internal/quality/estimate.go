// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"math"

	"github.com/pdiddy/pdfconv/pkg/types"
)

// Estimation model. A reference page is US Letter (8.5 x 11 in), so a page
// rendered at d dpi has 93.5 * d^2 pixels. JPEG costs jpegBytesPerPixel at
// quality 85, scaled linearly with the quality setting; PNG costs a fixed
// pngBytesPerPixel. The reported range spans rangeLow to rangeHigh times the
// point estimate.
const (
	referencePageSqIn  = 8.5 * 11
	jpegBytesPerPixel  = 0.15
	jpegReferenceLevel = 85.0
	pngBytesPerPixel   = 0.40
	rangeLow           = 0.5
	rangeHigh          = 2.0
)

// Estimate returns an approximate output size for rasterizing pageCount
// pages with cfg. The numbers are advisory: real sizes depend on page
// content entropy, which this function never inspects.
func Estimate(pageCount int, cfg types.QualityConfiguration) types.SizeRange {
	if pageCount <= 0 || cfg.DPI <= 0 {
		return types.SizeRange{}
	}
	perPage := PerPageBytes(cfg)
	expected := perPage * float64(pageCount)
	return types.SizeRange{
		Min:      int64(math.Round(expected * rangeLow)),
		Expected: int64(math.Round(expected)),
		Max:      int64(math.Round(expected * rangeHigh)),
	}
}

// PerPageBytes is the point estimate for a single reference page.
func PerPageBytes(cfg types.QualityConfiguration) float64 {
	pixels := referencePageSqIn * float64(cfg.DPI) * float64(cfg.DPI)
	if cfg.Encoding == types.EncodingPNG {
		return pixels * pngBytesPerPixel
	}
	return pixels * jpegBytesPerPixel * float64(cfg.Compression) / jpegReferenceLevel
}
