package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"article-extract/internal/app"
	"article-extract/internal/article"
	"article-extract/internal/chunker"
	"article-extract/internal/httputil"
	"article-extract/internal/llm"
	"article-extract/internal/pdfblocks"
	"article-extract/internal/summarize"
	"article-extract/internal/tokens"
)

type countRequest struct {
	Text  string `json:"text" validate:"required"`
	Model string `json:"model"`
}

type chunkRequest struct {
	Text      string `json:"text" validate:"required"`
	MaxTokens int    `json:"max_tokens" validate:"omitempty,min=1"`
	Overlap   *int   `json:"overlap" validate:"omitempty,min=0"`
}

type extractionRequest struct {
	Text string `json:"text" validate:"required"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/tokens/count", countHandler(deps))
	r.Post("/api/chunks", chunksHandler(deps))
	r.Post("/api/articles", articleHandler(deps))
	r.Post("/api/extractions", extractionHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps))
	return r
}

func countHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req countRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		model := deps.Config.TokenModel
		var (
			n   int
			err error
		)
		if req.Model == "" || req.Model == model {
			n, err = tokens.Measure(deps.Encoder, req.Text)
		} else {
			model = req.Model
			n, err = tokens.CountTokens(req.Text, model)
		}
		if err != nil {
			status := http.StatusInternalServerError
			if model != deps.Config.TokenModel {
				status = http.StatusBadRequest
			}
			httputil.Fail(deps.Log, w, "token counting failed", err, status)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"model":  model,
			"tokens": n,
		})
	}
}

func chunksHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chunkRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		opts := app.ChunkOptions(deps.Config)
		if req.MaxTokens > 0 {
			opts.MaxTokens = req.MaxTokens
		}
		if req.Overlap != nil {
			opts.Overlap = *req.Overlap
		}

		chunks, err := chunker.Split(req.Text, opts, deps.Encoder)
		var tooLarge *chunker.TooLargeError
		oversize := []int{}
		switch {
		case errors.As(err, &tooLarge):
			oversize = tooLarge.Indexes
		case errors.Is(err, chunker.ErrInvalidConfiguration):
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusUnprocessableEntity)
			return
		case err != nil:
			httputil.Fail(deps.Log, w, "chunking failed", err, http.StatusInternalServerError)
			return
		}
		if chunks == nil {
			chunks = []chunker.Chunk{}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"max_tokens": opts.MaxTokens,
			"overlap":    opts.Overlap,
			"chunks":     chunks,
			"oversize":   oversize,
		})
	}
}

func articleHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		// Validate file size before parsing
		if maxFileSize > 0 && r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if maxFileSize > 0 && header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}
		if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
			httputil.Fail(deps.Log, w, "unsupported file type (only PDF allowed)", nil, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		blocks, err := pdfblocks.Extract(bytes.NewReader(content), int64(len(content)))
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to parse pdf", err, http.StatusUnprocessableEntity)
			return
		}
		md := article.FromBlocks(header.Filename, blocks)
		deps.Log.Info("article processed", "filename", header.Filename, "blocks", len(blocks), "doi", md.DOI)
		httputil.WriteJSON(w, http.StatusOK, md)
	}
}

func extractionHandler(deps app.Deps) http.HandlerFunc {
	pipeline := deps.Pipeline()

	return func(w http.ResponseWriter, r *http.Request) {
		var req extractionRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		res, err := pipeline.Run(r.Context(), req.Text)
		switch {
		case err == nil:
			httputil.WriteJSON(w, http.StatusOK, res)
		case errors.Is(err, summarize.ErrEmptyText):
			httputil.Fail(deps.Log, w, "text has no words", err, http.StatusBadRequest)
		case errors.Is(err, chunker.ErrInvalidConfiguration):
			httputil.Fail(deps.Log, w, "chunker misconfigured", err, http.StatusInternalServerError)
		case errors.Is(err, llm.ErrExternalService):
			httputil.Fail(deps.Log.With("run_id", res.RunID), w, "inference service failed", err, http.StatusBadGateway)
		default:
			httputil.Fail(deps.Log.With("run_id", res.RunID), w, "extraction failed", err, http.StatusInternalServerError)
		}
	}
}
