// Package bootstrap provides dependency initialization for the washoverlay command.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/washoverlay/internal/config"
	"github.com/maauso/washoverlay/internal/media"
	"github.com/maauso/washoverlay/internal/storage"
)

// Options carries command-line choices that are not part of Config.
type Options struct {
	// FFmpegPath overrides the ffmpeg binary. Empty resolves "ffmpeg" via PATH.
	FFmpegPath string
	// Publish requests an S3 publisher; it requires S3 configuration.
	Publish bool
}

// Dependencies holds all initialized dependencies for one command run.
type Dependencies struct {
	Invoker *media.Invoker
	// Publisher is nil unless Options.Publish was set.
	Publisher storage.Publisher
}

// NewDependencies creates and initializes all dependencies for the command.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Dependencies, error) {
	deps := &Dependencies{
		Invoker: media.NewInvoker(
			media.WithFFmpegPath(opts.FFmpegPath),
			media.WithLogger(logger),
		),
	}

	if opts.Publish {
		pub, err := initPublisher(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		deps.Publisher = pub
	}

	return deps, nil
}

// initPublisher creates the S3 publisher from configuration.
func initPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Publisher, error) {
	if !cfg.S3Enabled() {
		return nil, storage.ErrS3NotConfigured
	}

	pub, err := storage.NewS3Publisher(ctx, storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 publisher: %w", err)
	}

	logger.Debug("S3 publishing configured",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
	)
	return pub, nil
}
