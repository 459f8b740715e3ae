package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maauso/washoverlay/internal/bootstrap"
	"github.com/maauso/washoverlay/internal/config"
	"github.com/maauso/washoverlay/internal/media"
	"github.com/maauso/washoverlay/internal/runid"
	"github.com/maauso/washoverlay/internal/storage"
)

type rootOptions struct {
	ffmpegPath string
	dryRun     bool
	upload     bool
}

func newRootCommand() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:   "washoverlay <primary> <secondary> <output>",
		Short: "Overlay a cyan-washed video, half size, on a red-washed video",
		Long: "washoverlay runs ffmpeg to tint <primary> red and <secondary> cyan, shrink\n" +
			"<secondary> to half size, center it over <primary> and merge both audio\n" +
			"tracks into stereo. The result is written to <output>.",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := media.Request{Primary: args[0], Secondary: args[1], Output: args[2]}
			return run(cmd.Context(), cmd.OutOrStdout(), opts, req)
		},
	}

	rootCmd.Flags().StringVar(&opts.ffmpegPath, "ffmpeg", "", "Path to the ffmpeg binary (default: ffmpeg from PATH)")
	rootCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate inputs and print the ffmpeg command without running it")
	rootCmd.Flags().BoolVar(&opts.upload, "upload", false, "Upload the result to S3 (requires S3_BUCKET and S3_REGION)")

	return rootCmd
}

func run(ctx context.Context, out io.Writer, opts rootOptions, req media.Request) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	id := runid.Generate()
	logger := cfg.NewLogger().With(slog.String("run_id", id))
	slog.SetDefault(logger)

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger, bootstrap.Options{
		FFmpegPath: opts.ffmpegPath,
		Publish:    opts.upload && !opts.dryRun,
	})
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	if opts.dryRun {
		if err := deps.Invoker.Validate(req); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out, deps.Invoker.Command(req).String())
		return err
	}

	res := deps.Invoker.Overlay(ctx, req)
	if !res.OK() {
		return fmt.Errorf("overlay failed (%s): %w", res.Kind, res.Err)
	}
	if _, err := fmt.Fprintln(out, res.OutputPath); err != nil {
		return err
	}

	if deps.Publisher == nil {
		return nil
	}

	key := storage.ObjectKey(cfg.S3Prefix, id, res.OutputPath)
	url, err := deps.Publisher.Publish(ctx, key, res.OutputPath)
	if err != nil {
		logger.Error("failed to publish output",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish %s: %w", res.OutputPath, err)
	}
	logger.Info("output published", slog.String("url", url))
	_, err = fmt.Fprintln(out, url)
	return err
}
