package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"haptune/internal/config"
	"haptune/internal/logging"
)

// S3Resolver fetches scene bundles from an S3-compatible object store and
// materializes them into a local staging directory. Each identifier is
// downloaded at most once per staging lifetime; the archive cache downstream
// re-validates content by hash, so a stale staging copy of a replaced object
// surfaces as a cache miss there, not here.
type S3Resolver struct {
	client  *minio.Client
	bucket  string
	staging string
	logger  *slog.Logger
}

func NewS3Resolver(cfg config.Assets, logger *slog.Logger) (*S3Resolver, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("assets: connect %q: %w", cfg.Endpoint, err)
	}
	if err := os.MkdirAll(cfg.StagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("assets: create staging dir: %w", err)
	}
	return &S3Resolver{
		client:  client,
		bucket:  cfg.Bucket,
		staging: cfg.StagingDir,
		logger:  logging.NewComponentLogger(logger, "assets"),
	}, nil
}

func (r *S3Resolver) Resolve(ctx context.Context, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", errors.New("assets: empty identifier")
	}

	local := r.stagingPath(identifier)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	if err := r.client.FGetObject(ctx, r.bucket, identifier, local, minio.GetObjectOptions{}); err != nil {
		_ = os.Remove(local)
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return "", fmt.Errorf("assets: %q: %w", identifier, ErrNotFound)
		}
		return "", fmt.Errorf("assets: fetch %q: %w", identifier, err)
	}
	r.logger.InfoContext(ctx, "staged remote scene",
		logging.String(logging.FieldSource, identifier),
		logging.String("staging_path", local),
	)
	return local, nil
}

// stagingPath derives a collision-free local name from the object key. The
// hash prefix keeps keys with path separators or duplicate basenames apart.
func (r *S3Resolver) stagingPath(identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	name := hex.EncodeToString(sum[:8]) + "-" + filepath.Base(identifier)
	return filepath.Join(r.staging, name)
}
