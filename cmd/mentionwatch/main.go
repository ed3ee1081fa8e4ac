// Command mentionwatch watches a live Twitch chat for mentions of the
// signed-in viewer.
//
// Usage:
//
//	mentionwatch -config mentionwatch.yaml       # full YAML config
//	mentionwatch -channel https://twitch.tv/xyz  # quick single-channel mode
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/mentionwatch"
)

func main() {
	configPath := flag.String("config", "", "path to mentionwatch.yaml config file")
	channelURL := flag.String("channel", "", "watch a single channel URL with defaults")
	trackNames := flag.String("track", "", "comma-separated extra names to track")
	headful := flag.Bool("headful", false, "run Chrome with a visible window")
	panelAddr := flag.String("panel", "", "serve the history panel on this address")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := buildConfig(*configPath, *channelURL, *trackNames, *headful, *panelAddr)
	if err != nil {
		logger.Error("mentionwatch: fatal", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("mentionwatch: fatal", "error", err)
		os.Exit(1)
	}
}

func buildConfig(configPath, channelURL, trackNames string, headful bool, panelAddr string) (*mentionwatch.Config, error) {
	var cfg *mentionwatch.Config
	switch {
	case configPath != "":
		loaded, err := mentionwatch.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	case channelURL != "":
		cfg = &mentionwatch.Config{}
		cfg.Defaults()
		cfg.Channel.URL = channelURL
	default:
		fmt.Fprintln(os.Stderr, "usage: mentionwatch -config <file> | -channel <url>")
		os.Exit(1)
	}

	if trackNames != "" {
		for _, name := range strings.Split(trackNames, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Channel.TrackedNames = append(cfg.Channel.TrackedNames, name)
			}
		}
	}
	if headful {
		cfg.Browser.Headful = true
	}
	if panelAddr != "" {
		cfg.Panel.Listen = panelAddr
	}
	return cfg, nil
}

func run(ctx context.Context, logger *slog.Logger, cfg *mentionwatch.Config) error {
	s := mentionwatch.New(cfg, logger)
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	s.Stop()
	return nil
}
