package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hoangvvo/afford-agent/afford"
	"github.com/hoangvvo/afford-agent/internal/app"
	"github.com/hoangvvo/afford-agent/internal/config"
	"github.com/hoangvvo/afford-agent/internal/logging"
	"github.com/hoangvvo/afford-agent/llmagent"
	"github.com/hoangvvo/afford-agent/mcpserver"
	"github.com/sanity-io/litter"
)

func main() {
	dump := flag.Bool("dump", false, "print the final run state")
	serveMCP := flag.Bool("mcp", false, "serve the afford tools over MCP on stdio instead of running the agent")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *dump, *serveMCP); err != nil {
		var agentErr *llmagent.AgentError
		if errors.As(err, &agentErr) {
			fmt.Fprintf(os.Stderr, "error: kind=%s turn=%d: %v\n", agentErr.Kind, agentErr.Turn, err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, dump, serveMCP bool) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	shutdown, err := app.InitTracing(ctx, cfg, "afford")
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	printer := stepPrinter{w: os.Stdout}
	components, err := app.Build(cfg, logger, llmagent.WithObserver(printer.print))
	if err != nil {
		return err
	}

	if serveMCP {
		logger.Info("serving MCP on stdio")
		return mcpserver.ServeStdio(ctx, mcpserver.New(components.Extractor, components.Searcher, &mcpserver.Options{Logger: logger}))
	}

	imageURL, err := readImageURL(os.Stdin)
	if err != nil {
		return err
	}
	logger.Info("starting run", "image_url", imageURL, "model", cfg.ModelID)

	resp, err := components.Agent.Run(ctx, afford.NewRunRequest(imageURL))
	if err != nil {
		return err
	}
	if dump {
		litter.Dump(resp.State)
	}
	return nil
}

// readImageURL returns the first non-empty line of stdin, or the demo image
// when stdin is a terminal or empty.
func readImageURL(stdin *os.File) (string, error) {
	info, err := stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return afford.DemoImageURL, nil
	}
	return firstLine(stdin, afford.DemoImageURL)
}

func firstLine(r io.Reader, fallback string) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read image url: %w", err)
	}
	return fallback, nil
}
