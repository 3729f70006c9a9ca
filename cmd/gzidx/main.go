package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/dselans/gzidx"
	"github.com/dselans/gzidx/checkpoint"
	"github.com/dselans/gzidx/config"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Println("ERROR: ", err)
		os.Exit(1)
	}

	if cfg.CLI.Debug {
		logrus.Info("debug mode enabled")
		logrus.SetLevel(logrus.DebugLevel)
	}

	if cfg.CLI.Source != "" {
		cfg.TOML.Index.SourceFile = cfg.CLI.Source
	}
	if cfg.CLI.Output != "" {
		cfg.TOML.Index.IndexFile = cfg.CLI.Output
	}
	if cfg.TOML.Index.IndexFile == "" && cfg.TOML.Index.SourceFile != "" {
		cfg.TOML.Index.IndexFile = cfg.TOML.Index.SourceFile + config.DefaultIndexSuffix
	}

	if !cfg.CLI.Quiet {
		displayConfig(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, os.Kill)

	go func() {
		sig := <-c
		logrus.Debugf("received system call: %+v", sig)
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		logrus.Errorf("error during run: %s", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	streamType := streamTypeFromString(cfg.TOML.Index.StreamType)
	spacingIsUncompressed := cfg.TOML.Index.SpacingUnit == "uncompressed"

	if cfg.CLI.Build {
		if err := os.Remove(cfg.TOML.Index.IndexFile); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	res, err := checkpoint.Load(
		cfg.TOML.Index.IndexFile,
		cfg.TOML.Index.SourceFile,
		streamType,
		cfg.TOML.Index.WindowSize,
		cfg.TOML.Index.Spacing,
		spacingIsUncompressed,
	)
	if err != nil {
		return err
	}

	if cfg.CLI.Seek >= 0 {
		if err := res.Index.Seek(cfg.CLI.Seek, nil); err != nil {
			return err
		}
		logrus.Infof("seeked to uncompressed offset %d", cfg.CLI.Seek)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if !cfg.CLI.Quiet {
		logrus.Infof("index ready: %d checkpoints, %d bytes compressed, %d bytes uncompressed",
			len(res.Index.Checkpoints()), res.Index.CompressedSize(), res.Index.UncompressedSize())
	}
	return nil
}

func streamTypeFromString(s string) gzidx.StreamType {
	switch s {
	case "deflate":
		return gzidx.Deflate
	case "zlib", "auto":
		return gzidx.GzipOrZlib
	default:
		return gzidx.Gzip
	}
}

func displayConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	logrus.Info("gzidx settings:")
	logrus.Info("  [CLI]")
	logrus.Infof("  version: %s", config.VERSION)
	logrus.Infof("  debug: %v", cfg.CLI.Debug)
	logrus.Infof("  config file: %s", cfg.CLI.ConfigFile)
	logrus.Infof("  seek: %d", cfg.CLI.Seek)
	logrus.Infof("  build: %v", cfg.CLI.Build)
	logrus.Infof("  quiet: %v", cfg.CLI.Quiet)
	logrus.Info("")
	logrus.Info("  [INDEX]")
	logrus.Infof("  index.source_file: %s", cfg.TOML.Index.SourceFile)
	logrus.Infof("  index.index_file: %s", cfg.TOML.Index.IndexFile)
	logrus.Infof("  index.stream_type: %s", cfg.TOML.Index.StreamType)
	logrus.Infof("  index.window_size: %d", cfg.TOML.Index.WindowSize)
	logrus.Infof("  index.spacing: %d", cfg.TOML.Index.Spacing)
	logrus.Infof("  index.spacing_unit: %s", cfg.TOML.Index.SpacingUnit)
}
