package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/vmodel/internal/config"
	"github.com/vango-dev/vmodel/pkg/persist"
)

// newStorage builds the snapshot storage for cfg. It returns nil for the
// "none" backend. Tests replace it.
var newStorage = func(ctx context.Context, cfg *config.Config) (persist.Storage, error) {
	switch cfg.Persist.Backend {
	case config.BackendS3:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.Persist.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Persist.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return persist.NewS3Storage(s3.NewFromConfig(awsCfg), cfg.Persist.Bucket, cfg.Persist.Prefix), nil

	case config.BackendMemory:
		return persist.NewMemoryStorage(), nil
	}
	return nil, nil
}
