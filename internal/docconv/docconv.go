// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docconv delegates Word, HTML, and Markdown generation to pandoc.
// Pandoc runs either as a local binary or inside a container image pulled
// into docker or podman. Both backends read the Markdown intermediate on
// stdin and write the target document to stdout.
package docconv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/pdfconv/internal/container"
	"github.com/pdiddy/pdfconv/pkg/types"
)

// Tool is the dependency name reported when no converter is usable.
const Tool = "document-converter"

const binPandoc = "pandoc"

// Converter turns a Markdown intermediate file into a document of the
// requested kind.
type Converter interface {
	// Name identifies the backend in logs and reports.
	Name() string

	// Available returns a MissingDependencyError when the backend cannot
	// run in this environment.
	Available(ctx context.Context) error

	// Convert reads inputPath and writes the converted document to
	// outputPath. outputPath is removed if conversion fails.
	Convert(ctx context.Context, inputPath string, kind types.OutputKind, outputPath string) error
}

// Args returns the pandoc arguments for kind. Output always goes to stdout.
func Args(kind types.OutputKind) ([]string, error) {
	base := []string{"--from", "markdown", "--output", "-"}
	switch kind {
	case types.OutputWord:
		return append(base, "--to", "docx"), nil
	case types.OutputHTML:
		return append(base, "--to", "html5", "--standalone"), nil
	case types.OutputMarkdown:
		return append(base, "--to", "gfm"), nil
	}
	return nil, &types.UnsupportedFormatError{Kind: string(kind)}
}

// PandocConverter runs a pandoc binary from the host.
type PandocConverter struct {
	bin  string
	exec container.Executor
}

// NewPandocConverter returns a converter for the pandoc binary at path, or
// the one on PATH when path is empty.
func NewPandocConverter(path string, exec container.Executor) *PandocConverter {
	if path == "" {
		path = binPandoc
	}
	return &PandocConverter{bin: path, exec: exec}
}

func (p *PandocConverter) Name() string { return binPandoc }

func (p *PandocConverter) Available(ctx context.Context) error {
	if _, err := p.exec.LookPath(p.bin); err != nil {
		return &types.MissingDependencyError{Tool: Tool, Detail: "pandoc not found on PATH", Err: err}
	}
	if err := p.exec.RunSilent(ctx, p.bin, "--version"); err != nil {
		return &types.MissingDependencyError{Tool: Tool, Detail: "pandoc is not runnable", Err: err}
	}
	return nil
}

func (p *PandocConverter) Convert(ctx context.Context, inputPath string, kind types.OutputKind, outputPath string) error {
	args, err := Args(kind)
	if err != nil {
		return err
	}
	return pipe(inputPath, outputPath, func(in io.Reader, out io.Writer) error {
		if err := p.exec.RunPiped(ctx, p.bin, args, in, out); err != nil {
			return fmt.Errorf("running pandoc: %w", err)
		}
		return nil
	})
}

// ContainerConverter runs pandoc from a container image.
type ContainerConverter struct {
	runtime container.Runtime
	image   string
}

// NewContainerConverter returns a converter running image in rt.
func NewContainerConverter(rt container.Runtime, image string) *ContainerConverter {
	if image == "" {
		image = types.DefaultConverterImage
	}
	return &ContainerConverter{runtime: rt, image: image}
}

func (c *ContainerConverter) Name() string {
	return c.runtime.Name() + ":" + c.image
}

func (c *ContainerConverter) Available(ctx context.Context) error {
	if err := c.runtime.ImageExists(ctx, c.image); err != nil {
		return &types.MissingDependencyError{
			Tool:   Tool,
			Detail: fmt.Sprintf("pull %s with %s", c.image, c.runtime.Name()),
			Err:    err,
		}
	}
	return nil
}

func (c *ContainerConverter) Convert(ctx context.Context, inputPath string, kind types.OutputKind, outputPath string) error {
	args, err := Args(kind)
	if err != nil {
		return err
	}
	return pipe(inputPath, outputPath, func(in io.Reader, out io.Writer) error {
		return c.runtime.Run(ctx, c.image, args, in, out)
	})
}

// pipe opens inputPath, creates outputPath, and runs fn between them. A
// failed or empty conversion leaves no output file behind.
func pipe(inputPath, outputPath string, fn func(io.Reader, io.Writer) error) (err error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening intermediate %s: %w", inputPath, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", outputPath, err)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", outputPath, cerr)
		}
		if err != nil {
			os.Remove(outputPath)
		}
	}()

	if err := fn(in, out); err != nil {
		return err
	}
	info, err := out.Stat()
	if err != nil {
		return fmt.Errorf("checking %s: %w", outputPath, err)
	}
	if info.Size() == 0 {
		return errors.New("document converter produced empty output")
	}
	return nil
}

// DetectTimeout bounds the probes Detect runs: pandoc --version, docker or
// podman info, and the image lookup.
var DetectTimeout = 20 * time.Second

// Detect returns the converter selected by cfg.Backend. In auto mode a local
// pandoc wins over a container runtime. When nothing is usable the error is
// a MissingDependencyError naming the document converter, or a TimeoutError
// when the probes ran out of time.
func Detect(ctx context.Context, cfg types.ConverterConfig, exec container.Executor) (Converter, error) {
	dctx, cancel := context.WithTimeout(ctx, DetectTimeout)
	defer cancel()

	conv, err := detect(dctx, cfg, exec)
	if err != nil && ctx.Err() == nil && dctx.Err() != nil {
		return nil, &types.TimeoutError{Operation: "document converter detection", After: DetectTimeout}
	}
	return conv, err
}

func detect(ctx context.Context, cfg types.ConverterConfig, exec container.Executor) (Converter, error) {
	switch cfg.Backend {
	case types.BackendPandoc:
		p := NewPandocConverter(cfg.PandocPath, exec)
		if err := p.Available(ctx); err != nil {
			return nil, err
		}
		return p, nil
	case types.BackendContainer:
		return detectContainer(ctx, cfg, exec)
	case types.BackendAuto, "":
		p := NewPandocConverter(cfg.PandocPath, exec)
		if p.Available(ctx) == nil {
			return p, nil
		}
		c, err := detectContainer(ctx, cfg, exec)
		if err != nil {
			return nil, &types.MissingDependencyError{
				Tool:   Tool,
				Detail: "install pandoc, or docker/podman with the " + imageOrDefault(cfg.Image) + " image",
				Err:    errors.Unwrap(err),
			}
		}
		return c, nil
	}
	return nil, &types.InvalidConfigurationError{
		Field:  "converter.backend",
		Reason: fmt.Sprintf("unknown backend %q (want auto, pandoc or container)", cfg.Backend),
	}
}

func detectContainer(ctx context.Context, cfg types.ConverterConfig, exec container.Executor) (Converter, error) {
	rt, err := container.DetectRuntimeWith(ctx, exec)
	if err != nil {
		return nil, &types.MissingDependencyError{Tool: Tool, Detail: "no container runtime", Err: err}
	}
	c := NewContainerConverter(rt, cfg.Image)
	if err := c.Available(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func imageOrDefault(image string) string {
	if image == "" {
		return types.DefaultConverterImage
	}
	return image
}
