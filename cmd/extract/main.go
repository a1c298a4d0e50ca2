package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"article-extract/internal/app"
	"article-extract/internal/article"
	"article-extract/internal/chunker"
	"article-extract/internal/pdfblocks"
)

const usage = `usage: extract [-mode blocks|metadata|chunks|full] FILE

FILE is a PDF article or a plain text file. Results are written to stdout as JSON.
`

type output struct {
	Metadata *article.Metadata `json:"metadata,omitempty"`
	Chunks   []chunker.Chunk   `json:"chunks,omitempty"`
	Result   any               `json:"result,omitempty"`
}

func main() {
	mode := flag.String("mode", "full", "blocks, metadata, chunks or full")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch *mode {
	case "blocks", "metadata":
		err = runLocal(*mode, path, os.Stdout)
	case "chunks", "full":
		var deps app.Deps
		if deps, err = buildDeps(*mode); err == nil {
			err = run(ctx, deps, *mode, path, os.Stdout)
		}
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		slog.Default().Error("extract failed", "file", path, "mode", *mode, "err", err)
		os.Exit(1)
	}
}

// buildDeps skips the model client when only chunks are requested.
func buildDeps(mode string) (app.Deps, error) {
	if mode == "chunks" {
		return app.BuildChunking()
	}
	return app.Build()
}

// runLocal handles the modes that need neither a tokenizer nor a model.
func runLocal(mode, path string, w io.Writer) error {
	if mode == "blocks" {
		blocks, err := pdfblocks.ExtractFile(path)
		if err != nil {
			return err
		}
		return writeJSON(w, blocks)
	}
	md, err := article.ProcessFile(path)
	if err != nil {
		return err
	}
	return writeJSON(w, output{Metadata: &md})
}

func run(ctx context.Context, deps app.Deps, mode, path string, w io.Writer) error {
	md, text, err := load(path)
	if err != nil {
		return err
	}
	out := output{Metadata: md}

	if mode == "chunks" {
		chunks, err := chunker.Split(text, app.ChunkOptions(deps.Config), deps.Encoder)
		var tooLarge *chunker.TooLargeError
		if errors.As(err, &tooLarge) {
			deps.Log.Warn("oversize chunks", "indexes", tooLarge.Indexes)
		} else if err != nil {
			return err
		}
		out.Chunks = chunks
		return writeJSON(w, out)
	}

	res, err := deps.Pipeline().Run(ctx, text)
	if err != nil {
		return err
	}
	out.Result = res
	return writeJSON(w, out)
}

// load returns the article metadata for PDFs, and the text to chunk.
func load(path string) (*article.Metadata, string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		md, err := article.ProcessFile(path)
		if err != nil {
			return nil, "", err
		}
		return &md, md.Text(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return nil, string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
