// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfconv/internal/docconv"
	"github.com/pdiddy/pdfconv/internal/pdf"
	"github.com/pdiddy/pdfconv/internal/pdf/pdftest"
	"github.com/pdiddy/pdfconv/internal/quality"
	"github.com/pdiddy/pdfconv/internal/validate"
	"github.com/pdiddy/pdfconv/pkg/types"
)

// fakeConverter implements docconv.Converter with a caller-supplied
// conversion function. The default copies the intermediate unchanged.
type fakeConverter struct {
	convert func(ctx context.Context, in string, kind types.OutputKind, out string) error
}

func (f *fakeConverter) Name() string { return "fake" }

func (f *fakeConverter) Available(context.Context) error { return nil }

func (f *fakeConverter) Convert(ctx context.Context, in string, kind types.OutputKind, out string) error {
	if f.convert != nil {
		return f.convert(ctx, in, kind, out)
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

func converterFunc(c docconv.Converter) ConverterFunc {
	return func(context.Context) (docconv.Converter, error) { return c, nil }
}

func testConfig(t *testing.T) types.ConversionConfig {
	t.Helper()
	return types.ConversionConfig{
		Workers:         2,
		DelegateTimeout: time.Second,
		PerPageTimeout:  10 * time.Millisecond,
		ScratchDir:      t.TempDir(),
	}
}

func newOrchestrator(t *testing.T, engine pdf.Engine, conv ConverterFunc, cfg types.ConversionConfig) *Orchestrator {
	t.Helper()
	v := validate.New(engine, nil, nil, false)
	o, err := New(cfg, v, NewSelector(engine, conv, cfg), zerolog.Nop())
	require.NoError(t, err)
	return o
}

// writeSource puts a real PDF on disk for the validator's header check; the
// fake engine supplies the pages.
func writeSource(t *testing.T) string {
	t.Helper()
	return pdftest.Write(t, t.TempDir(), "report.pdf", "placeholder")
}

func pages(n int, text string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %d", text, i+1)
	}
	return out
}

func imageOptions(t *testing.T, preset types.Preset, dest string) types.ConversionOptions {
	t.Helper()
	q, err := quality.Resolve(preset)
	require.NoError(t, err)
	return types.ConversionOptions{Kind: types.OutputImage, Quality: q, Destination: dest}
}

func requireScratchEmpty(t *testing.T, cfg types.ConversionConfig) {
	t.Helper()
	entries, err := os.ReadDir(cfg.ScratchDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directories must be removed")
}

func TestConvert_TextConcatenatesPagesInOrder(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: []string{"alpha", "  beta\r\nsecond line ", "gamma"}}
	cfg := testConfig(t)
	o := newOrchestrator(t, engine, nil, cfg)
	dest := filepath.Join(t.TempDir(), "out.txt")

	res, err := o.Convert(context.Background(), writeSource(t), types.ConversionOptions{Kind: types.OutputText, Destination: dest})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, types.ConversionDone, res.Status)
	assert.Equal(t, types.PhaseCompleted, res.Phase)
	assert.Equal(t, []string{dest}, res.Artifacts)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	want := "--- Page 1 ---\nalpha\n\n--- Page 2 ---\nbeta\nsecond line\n\n--- Page 3 ---\ngamma\n"
	assert.Equal(t, want, string(data))
	assert.Equal(t, int64(len(want)), res.ActualBytes)
	assert.Nil(t, res.Estimate)
	requireScratchEmpty(t, cfg)
}

func TestConvert_TextIsIdempotent(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: pages(4, "section *emphasis* #tag")}
	o := newOrchestrator(t, engine, nil, testConfig(t))
	src := writeSource(t)
	dir := t.TempDir()

	var outputs [][]byte
	for _, name := range []string{"first.txt", "second.txt", "first.txt"} {
		dest := filepath.Join(dir, name)
		_, err := o.Convert(context.Background(), src, types.ConversionOptions{Kind: types.OutputText, Destination: dest})
		require.NoError(t, err)
		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		outputs = append(outputs, data)
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[0], outputs[2])
}

func TestConvert_TextPageWithoutTextIsReported(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: []string{"first", "   ", "third"}}
	o := newOrchestrator(t, engine, nil, testConfig(t))
	dest := filepath.Join(t.TempDir(), "out.txt")

	res, err := o.Convert(context.Background(), writeSource(t), types.ConversionOptions{Kind: types.OutputText, Destination: dest})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, types.ConversionPartial, res.Status)
	assert.Equal(t, []int{2}, res.FailedPages())

	var extract *types.ExtractionError
	require.ErrorAs(t, res.Pages[1].Err, &extract)
	assert.Equal(t, 2, extract.Page)
	assert.ErrorIs(t, res.Pages[1].Err, types.ErrNoTextLayer)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "--- Page 2 ---\n"+noTextPlaceholder+"\n")
}

func TestConvert_TextScannedDocumentFails(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: []string{"", "", ""}}
	cfg := testConfig(t)
	o := newOrchestrator(t, engine, nil, cfg)
	dest := filepath.Join(t.TempDir(), "out.txt")

	res, err := o.Convert(context.Background(), writeSource(t), types.ConversionOptions{Kind: types.OutputText, Destination: dest})
	var extract *types.ExtractionError
	require.ErrorAs(t, err, &extract)
	assert.Equal(t, 0, extract.Page)
	assert.ErrorIs(t, err, types.ErrNoTextLayer)
	assert.False(t, res.Success)
	assert.Equal(t, types.ConversionFailed, res.Status)
	assert.Equal(t, types.PhaseFailed, res.Phase)
	assert.Equal(t, types.PhaseConverting, res.FailedPhase)
	assert.Len(t, res.Pages, 3)
	assert.NoFileExists(t, dest)
	requireScratchEmpty(t, cfg)
}

func TestConvert_ImageOnePagePerFileInOrder(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: pages(8, "page")}
	// Later pages finish first.
	engine.OnRender = func(page int) {
		time.Sleep(time.Duration(8-page) * 3 * time.Millisecond)
	}
	cfg := testConfig(t)
	cfg.Workers = 4
	o := newOrchestrator(t, engine, nil, cfg)
	dest := filepath.Join(t.TempDir(), "images")

	res, err := o.Convert(context.Background(), writeSource(t), imageOptions(t, types.PresetLow, dest))
	require.NoError(t, err)
	assert.Equal(t, types.ConversionDone, res.Status)
	require.Len(t, res.Artifacts, 8)
	for i, p := range res.Artifacts {
		assert.Equal(t, filepath.Join(dest, fmt.Sprintf("report_page_%03d.jpg", i+1)), p)
		assert.FileExists(t, p)
		assert.Equal(t, i+1, res.Pages[i].Page)
		assert.Equal(t, p, res.Pages[i].Artifact)
	}
	require.NotNil(t, res.Estimate)
	assert.Positive(t, res.ActualBytes)

	opened, closed := engine.Handles()
	assert.Equal(t, opened, closed, "every document handle is closed")
	requireScratchEmpty(t, cfg)
}

func TestConvert_ImageRespectsStemAndPadding(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: pages(1200, "p")}
	engine.RenderErr = map[int]error{}
	for i := 2; i < 1200; i++ {
		engine.RenderErr[i] = errors.New("skip")
	}
	cfg := testConfig(t)
	o := newOrchestrator(t, engine, nil, cfg)
	dest := t.TempDir()
	opts := imageOptions(t, types.PresetUltra, dest)
	opts.Quality.DPI = types.MinDPI
	opts.ImageStem = "scan"

	res, err := o.Convert(context.Background(), writeSource(t), opts)
	require.NoError(t, err)
	assert.Equal(t, types.ConversionPartial, res.Status)
	assert.Equal(t, []string{
		filepath.Join(dest, "scan_page_0001.png"),
		filepath.Join(dest, "scan_page_0002.png"),
	}, res.Artifacts)
}

func TestConvert_ImageCorruptPageIsRecorded(t *testing.T) {
	engine := &pdftest.FakeEngine{
		Pages:     pages(5, "page"),
		RenderErr: map[int]error{2: errors.New("broken content stream")},
	}
	o := newOrchestrator(t, engine, nil, testConfig(t))
	dest := filepath.Join(t.TempDir(), "images")

	res, err := o.Convert(context.Background(), writeSource(t), imageOptions(t, types.PresetMedium, dest))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, types.ConversionPartial, res.Status)
	assert.Len(t, res.Artifacts, 4)
	assert.Equal(t, []int{3}, res.FailedPages())
	require.Len(t, res.Pages, 5)

	var extract *types.ExtractionError
	require.ErrorAs(t, res.Pages[2].Err, &extract)
	assert.Equal(t, 3, extract.Page)
	assert.NoFileExists(t, filepath.Join(dest, "report_page_003.jpg"))
	assert.FileExists(t, filepath.Join(dest, "report_page_004.jpg"))
}

func TestConvert_ImageAllPagesFail(t *testing.T) {
	engine := &pdftest.FakeEngine{
		Pages:     pages(2, "page"),
		RenderErr: map[int]error{0: errors.New("bad"), 1: errors.New("worse")},
	}
	o := newOrchestrator(t, engine, nil, testConfig(t))
	dest := filepath.Join(t.TempDir(), "images")

	res, err := o.Convert(context.Background(), writeSource(t), imageOptions(t, types.PresetLow, dest))
	var extract *types.ExtractionError
	require.ErrorAs(t, err, &extract)
	assert.Equal(t, types.ConversionFailed, res.Status)
	assert.Len(t, res.Pages, 2)
	assert.Empty(t, res.Artifacts)
	assert.NoDirExists(t, dest)
}

func TestConvert_ImageDimensionsFollowDPI(t *testing.T) {
	for _, preset := range types.Presets {
		t.Run(string(preset), func(t *testing.T) {
			engine := &pdftest.FakeEngine{Pages: []string{"only"}}
			o := newOrchestrator(t, engine, nil, testConfig(t))
			dest := t.TempDir()
			opts := imageOptions(t, preset, dest)

			res, err := o.Convert(context.Background(), writeSource(t), opts)
			require.NoError(t, err)
			require.Len(t, res.Artifacts, 1)

			f, err := os.Open(res.Artifacts[0])
			require.NoError(t, err)
			defer f.Close()
			cfg, format, err := image.DecodeConfig(f)
			require.NoError(t, err)
			assert.Equal(t, string(opts.Quality.Encoding), format)

			scale := float64(opts.Quality.DPI) / 72
			assert.InDelta(t, pdftest.PageWidth*scale, cfg.Width, 1)
			assert.InDelta(t, pdftest.PageHeight*scale, cfg.Height, 1)
			assert.Equal(t, cfg.Width, res.Pages[0].Width)
		})
	}
}

func TestConvert_CancelStopsBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rendered atomic.Int32
	engine := &pdftest.FakeEngine{Pages: pages(50, "page")}
	engine.OnRender = func(page int) {
		rendered.Add(1)
		if page == 9 {
			cancel()
		}
	}
	cfg := testConfig(t)
	cfg.Workers = 1
	o := newOrchestrator(t, engine, nil, cfg)
	src := writeSource(t)
	opts := imageOptions(t, types.PresetLow, filepath.Join(t.TempDir(), "images"))

	done := make(chan struct{})
	var (
		res *types.ConversionResult
		err error
	)
	go func() {
		defer close(done)
		res, err = o.Convert(ctx, src, opts)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("conversion did not stop after cancellation")
	}

	assert.ErrorIs(t, err, types.ErrCancelled)
	assert.False(t, res.Success)
	assert.Equal(t, types.ConversionCancelled, res.Status)
	assert.Equal(t, types.PhaseCancelled, res.Phase)
	assert.Equal(t, types.PhaseConverting, res.FailedPhase)
	assert.NotEmpty(t, res.Artifacts)
	assert.LessOrEqual(t, len(res.Artifacts), 10)
	assert.LessOrEqual(t, int(rendered.Load()), 10)
	for _, p := range res.Artifacts {
		assert.FileExists(t, p)
	}
	requireScratchEmpty(t, cfg)
}

func TestConvert_CancelWithParallelWorkersKeepsFinishedPagesOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := &pdftest.FakeEngine{Pages: pages(50, "page")}
	engine.OnRender = func(page int) {
		switch {
		case page == 9:
			cancel()
		case page > 9:
			// Still rendering when the cancel lands.
			<-ctx.Done()
			time.Sleep(5 * time.Millisecond)
		}
	}
	cfg := testConfig(t)
	cfg.Workers = 4
	o := newOrchestrator(t, engine, nil, cfg)
	opts := imageOptions(t, types.PresetLow, filepath.Join(t.TempDir(), "images"))

	res, err := o.Convert(ctx, writeSource(t), opts)
	assert.ErrorIs(t, err, types.ErrCancelled)
	assert.Equal(t, types.ConversionCancelled, res.Status)
	assert.LessOrEqual(t, len(res.Artifacts), 10)
	for _, p := range res.Pages {
		assert.Less(t, p.Page, 10, "page %d finished after cancellation", p.Page)
	}
	for _, p := range res.Artifacts {
		assert.FileExists(t, p)
	}
	requireScratchEmpty(t, cfg)
}

func TestConvert_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := &pdftest.FakeEngine{Pages: pages(3, "page")}
	o := newOrchestrator(t, engine, nil, testConfig(t))

	res, err := o.Convert(ctx, writeSource(t), types.ConversionOptions{Kind: types.OutputText, Destination: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrCancelled)
	assert.Equal(t, types.ConversionCancelled, res.Status)
	assert.Equal(t, types.PhaseValidating, res.FailedPhase)
	assert.Empty(t, res.Artifacts)
}

func TestConvert_TextCancelledKeepsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := &pdftest.FakeEngine{Pages: pages(5, "page")}
	dest := filepath.Join(t.TempDir(), "out.txt")
	o := newOrchestrator(t, cancellingEngine{FakeEngine: engine, cancel: cancel, at: 2}, nil, testConfig(t))

	res, err := o.Convert(ctx, writeSource(t), types.ConversionOptions{Kind: types.OutputText, Destination: dest})
	assert.ErrorIs(t, err, types.ErrCancelled)
	assert.Equal(t, types.ConversionCancelled, res.Status)
	assert.Empty(t, res.Artifacts)
	assert.NoFileExists(t, dest)
}

// cancellingEngine cancels the request when text for page index at is read.
type cancellingEngine struct {
	*pdftest.FakeEngine
	cancel context.CancelFunc
	at     int
}

func (e cancellingEngine) Open(path string) (pdf.Document, error) {
	d, err := e.FakeEngine.Open(path)
	if err != nil {
		return nil, err
	}
	return cancellingDocument{Document: d, cancel: e.cancel, at: e.at}, nil
}

type cancellingDocument struct {
	pdf.Document
	cancel context.CancelFunc
	at     int
}

func (d cancellingDocument) Text(page int) (string, error) {
	if page == d.at {
		d.cancel()
	}
	return d.Document.Text(page)
}

func TestConvert_RequestTimeout(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: pages(40, "page")}
	engine.OnRender = func(int) { time.Sleep(10 * time.Millisecond) }
	cfg := testConfig(t)
	cfg.Workers = 1
	cfg.RequestTimeout = 50 * time.Millisecond
	o := newOrchestrator(t, engine, nil, cfg)
	dest := filepath.Join(t.TempDir(), "images")

	res, err := o.Convert(context.Background(), writeSource(t), imageOptions(t, types.PresetLow, dest))
	var timeout *types.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, cfg.RequestTimeout, timeout.After)
	assert.Equal(t, types.ConversionFailed, res.Status)
	assert.Empty(t, res.Artifacts)
	assert.NoDirExists(t, dest)
}

func TestConvert_Delegated(t *testing.T) {
	tests := []struct {
		kind types.OutputKind
		ext  string
	}{
		{types.OutputWord, ".docx"},
		{types.OutputHTML, ".html"},
		{types.OutputMarkdown, ".md"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			engine := &pdftest.FakeEngine{
				Pages: []string{"Intro text", "", "1. first item"},
				Meta:  map[string]string{"title": "Quarterly Report"},
			}
			var gotKind types.OutputKind
			conv := &fakeConverter{}
			conv.convert = func(ctx context.Context, in string, kind types.OutputKind, out string) error {
				gotKind = kind
				data, err := os.ReadFile(in)
				if err != nil {
					return err
				}
				return os.WriteFile(out, data, 0o644)
			}
			cfg := testConfig(t)
			o := newOrchestrator(t, engine, converterFunc(conv), cfg)
			dest := filepath.Join(t.TempDir(), "quarterly")

			res, err := o.Convert(context.Background(), writeSource(t), types.ConversionOptions{Kind: tt.kind, Destination: dest})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, gotKind)
			require.Equal(t, []string{dest + tt.ext}, res.Artifacts)
			assert.Equal(t, []int{2}, res.FailedPages())

			data, err := os.ReadFile(res.Artifacts[0])
			require.NoError(t, err)
			body := string(data)
			assert.True(t, strings.HasPrefix(body, "---\ntitle: Quarterly Report\n"), body)
			assert.Contains(t, body, "## Page 1\n\nIntro text\n")
			assert.Contains(t, body, "## Page 3\n\n1\\. first item\n")
			requireScratchEmpty(t, cfg)
		})
	}
}

func TestConvert_DelegatedTimeout(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: []string{"slow"}}
	conv := &fakeConverter{convert: func(ctx context.Context, _ string, _ types.OutputKind, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	cfg := testConfig(t)
	cfg.DelegateTimeout = 20 * time.Millisecond
	cfg.PerPageTimeout = 5 * time.Millisecond
	o := newOrchestrator(t, engine, converterFunc(conv), cfg)
	dest := filepath.Join(t.TempDir(), "out.html")

	res, err := o.Convert(context.Background(), writeSource(t), types.ConversionOptions{Kind: types.OutputHTML, Destination: dest})
	var timeout *types.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 25*time.Millisecond, timeout.After)
	assert.Equal(t, types.PhaseConverting, res.FailedPhase)
	assert.NoFileExists(t, dest)
	requireScratchEmpty(t, cfg)
}

func TestConvert_DelegatedFailure(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: []string{"text"}}
	conv := &fakeConverter{convert: func(context.Context, string, types.OutputKind, string) error {
		return errors.New("pandoc: unknown writer")
	}}
	o := newOrchestrator(t, engine, converterFunc(conv), testConfig(t))

	_, err := o.Convert(context.Background(), writeSource(t), types.ConversionOptions{Kind: types.OutputWord, Destination: filepath.Join(t.TempDir(), "x.docx")})
	var deleg *types.DelegationError
	require.ErrorAs(t, err, &deleg)
	assert.Equal(t, "delegation_error", types.ErrorKind(err))
}

func TestConvert_MissingDependency(t *testing.T) {
	missing := func(context.Context) (docconv.Converter, error) {
		return nil, &types.MissingDependencyError{Tool: docconv.Tool, Detail: "pandoc not found on PATH"}
	}
	for name, conv := range map[string]ConverterFunc{"detection fails": missing, "not configured": nil} {
		t.Run(name, func(t *testing.T) {
			engine := &pdftest.FakeEngine{Pages: []string{"text"}}
			o := newOrchestrator(t, engine, conv, testConfig(t))
			dest := filepath.Join(t.TempDir(), "out.docx")

			res, err := o.Convert(context.Background(), writeSource(t), types.ConversionOptions{Kind: types.OutputWord, Destination: dest})
			var dep *types.MissingDependencyError
			require.ErrorAs(t, err, &dep)
			assert.Equal(t, "document-converter", dep.Tool)
			assert.Equal(t, types.PhaseSelecting, res.FailedPhase)
			assert.NoFileExists(t, dest)

			// Other formats stay usable.
			res, err = o.Convert(context.Background(), writeSource(t), types.ConversionOptions{Kind: types.OutputText, Destination: dest + ".txt"})
			require.NoError(t, err)
			assert.True(t, res.Success)
		})
	}
}

func TestConvert_RejectedBeforeWork(t *testing.T) {
	badQuality := types.QualityConfiguration{Preset: types.PresetCustom, DPI: 1000, Encoding: types.EncodingJPEG, Compression: 80}

	tests := []struct {
		name      string
		kind      types.OutputKind
		quality   types.QualityConfiguration
		wantKind  string
		wantPhase types.Phase
	}{
		{name: "unsupported kind", kind: "rtf", wantKind: "unsupported_format", wantPhase: types.PhaseSelecting},
		{name: "invalid quality", kind: types.OutputImage, quality: badQuality, wantKind: "invalid_configuration", wantPhase: types.PhaseSelecting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &pdftest.FakeEngine{Pages: []string{"text"}}
			o := newOrchestrator(t, engine, nil, testConfig(t))
			dest := filepath.Join(t.TempDir(), "out")

			res, err := o.Convert(context.Background(), writeSource(t), types.ConversionOptions{Kind: tt.kind, Quality: tt.quality, Destination: dest})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, types.ErrorKind(err))
			assert.Equal(t, tt.wantPhase, res.FailedPhase)
			assert.NoDirExists(t, dest)
			assert.NoFileExists(t, dest)

			opened, _ := engine.Handles()
			assert.Equal(t, 1, opened, "only the validator opened the document")
		})
	}
}

func TestConvert_InvalidDocument(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.pdf")
	require.NoError(t, os.WriteFile(src, []byte("plain text"), 0o644))
	o := newOrchestrator(t, &pdftest.FakeEngine{Pages: []string{"x"}}, nil, testConfig(t))

	res, err := o.Convert(context.Background(), src, types.ConversionOptions{Kind: types.OutputText, Destination: dir})
	var inv *types.InvalidDocumentError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, types.ReasonNotAPDF, inv.Reason)
	assert.Equal(t, types.PhaseValidating, res.FailedPhase)
	assert.Equal(t, types.PhaseFailed, res.Phase)
}

func TestConvert_WriteErrorIsFatal(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: []string{"text"}}
	o := newOrchestrator(t, engine, nil, testConfig(t))
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o644))

	res, err := o.Convert(context.Background(), writeSource(t), types.ConversionOptions{
		Kind:        types.OutputText,
		Destination: filepath.Join(blocker, "out.txt"),
	})
	var werr *types.WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, types.PhaseWriting, res.FailedPhase)
	assert.False(t, res.Success)
}

func TestConvert_WriteErrorRemovesWrittenArtifacts(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: pages(3, "page")}
	cfg := testConfig(t)
	o := newOrchestrator(t, engine, nil, cfg)
	dest := t.TempDir()

	// A non-empty directory where page 2 should go makes its move fail.
	blocked := filepath.Join(dest, "report_page_002.jpg")
	require.NoError(t, os.MkdirAll(blocked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocked, "keep"), nil, 0o644))

	res, err := o.Convert(context.Background(), writeSource(t), imageOptions(t, types.PresetLow, dest))
	var werr *types.WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, blocked, werr.Path)
	assert.Empty(t, res.Artifacts)
	assert.NoFileExists(t, filepath.Join(dest, "report_page_001.jpg"))
	assert.NoFileExists(t, filepath.Join(dest, "report_page_003.jpg"))
	requireScratchEmpty(t, cfg)
}

func TestConvert_PhasesVisited(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: []string{"x"}}
	o := newOrchestrator(t, engine, nil, testConfig(t))

	var buf strings.Builder
	o.log = zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, err := o.Convert(context.Background(), writeSource(t), types.ConversionOptions{Kind: types.OutputText, Destination: t.TempDir()})
	require.NoError(t, err)

	logged := buf.String()
	last := -1
	for _, p := range []types.Phase{types.PhaseValidating, types.PhaseSelecting, types.PhaseConverting, types.PhaseWriting, types.PhaseCompleted} {
		idx := strings.Index(logged, `"phase":"`+string(p)+`"`)
		require.GreaterOrEqual(t, idx, 0, "phase %s not logged", p)
		assert.Greater(t, idx, last, "phase %s out of order", p)
		last = idx
	}
	assert.Contains(t, logged, "conversion finished")
}

func TestConvert_DestinationDirectoryForSingleFile(t *testing.T) {
	engine := &pdftest.FakeEngine{Pages: []string{"x"}}
	o := newOrchestrator(t, engine, nil, testConfig(t))
	dir := t.TempDir()

	res, err := o.Convert(context.Background(), writeSource(t), types.ConversionOptions{Kind: types.OutputText, Destination: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "report.txt")}, res.Artifacts)
}

func TestConvert_LowPresetEstimateBoundsOutput(t *testing.T) {
	dir := t.TempDir()
	src := pdftest.Write(t, dir, "five.pdf", "one", "two", "three", "four", "five")
	cpu := pdf.NewPDFCPU()
	engine := pdf.NewFitzEngine()
	cfg := testConfig(t)
	o, err := New(cfg, validate.New(engine, cpu, cpu, true), NewSelector(engine, nil, cfg), zerolog.New(io.Discard))
	require.NoError(t, err)

	res, err := o.Convert(context.Background(), src, imageOptions(t, types.PresetLow, filepath.Join(dir, "out")))
	require.NoError(t, err)
	require.Len(t, res.Artifacts, 5)
	require.NotNil(t, res.Estimate)
	assert.GreaterOrEqual(t, res.Estimate.Min, int64(100_000))
	assert.LessOrEqual(t, res.Estimate.Max, int64(600_000))
	assert.Positive(t, res.ActualBytes)
	assert.LessOrEqual(t, res.ActualBytes, res.Estimate.Max)
}
