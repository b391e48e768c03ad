// Command bfrender exports a design document from the command line.
//
// Usage:
//
//	bfrender -in hero.html -format html > hero_export.html
//	bfrender -in hero.html -format markdown
//	bfrender -in hero.html -format pdf -browser -out hero.pdf
//	bfrender -in hero.html -format png -browser -out hero.png
//
// html and markdown are pure conversions. pdf and png render the document in
// a headless Chrome first and need -browser.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/buildflow/buildflow/browser"
	"github.com/buildflow/buildflow/export"
)

func main() {
	in := flag.String("in", "", "input markup file")
	format := flag.String("format", "html", "output format: html, markdown, pdf, png")
	out := flag.String("out", "", "output file (default: stdout)")
	useBrowser := flag.Bool("browser", false, "launch headless Chrome (required for pdf/png)")
	remote := flag.String("remote", "", "connect to a remote Chrome instead of launching")
	name := flag.String("name", "", "document title (default: input file name)")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *in, *format, *out, *name, *useBrowser, *remote); err != nil {
		logger.Error("bfrender: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, in, format, out, name string, useBrowser bool, remote string) error {
	if in == "" {
		return fmt.Errorf("-in is required")
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	}

	exp := export.New(logger)

	var result []byte
	switch format {
	case "html":
		doc, err := exp.HTML(name, string(data))
		if err != nil {
			return err
		}
		result = []byte(doc)

	case "markdown", "md":
		md, err := exp.Markdown(string(data))
		if err != nil {
			return err
		}
		result = []byte(md)

	case "pdf", "png":
		if !useBrowser && remote == "" {
			return fmt.Errorf("%s export needs -browser or -remote", format)
		}
		result, err = renderInBrowser(ctx, logger, exp, format, name, string(data), remote)
		if err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if out == "" {
		_, err = os.Stdout.Write(result)
		return err
	}
	if err := os.WriteFile(out, result, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("bfrender: wrote output", "file", out, "bytes", len(result))
	return nil
}

func renderInBrowser(ctx context.Context, logger *slog.Logger, exp *export.Exporter, format, name, fragment, remote string) ([]byte, error) {
	mgr := browser.NewManager(browser.Config{
		RemoteURL: remote,
		Logger:    logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	defer mgr.Close()

	doc, err := exp.HTML(name, fragment)
	if err != nil {
		return nil, err
	}

	page, err := mgr.Page()
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := page.SetDocumentContent(doc); err != nil {
		return nil, fmt.Errorf("set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		logger.Warn("bfrender: wait load", "error", err)
	}

	if format == "pdf" {
		return exp.PDF(ctx, page)
	}
	return exp.Screenshot(ctx, page, 1280)
}
