// Package cartstore persists cart snapshots as gzip-compressed JSON, either in
// a local directory or in an S3 bucket.
package cartstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"ecoshopy/internal/cart"
	"ecoshopy/internal/config"
	"ecoshopy/internal/model"

	"github.com/rs/zerolog"
)

const snapshotExt = ".json.gz"

var cartIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateID reports whether id is usable as a cart identifier. IDs become
// file names and object keys, so anything outside a small alphabet is refused.
func ValidateID(id string) error {
	if !cartIDPattern.MatchString(id) {
		return model.ErrInvalidCartID
	}
	return nil
}

// Open returns the cart store selected by configuration. When S3 is enabled
// but cannot be initialised the local directory is used instead.
func Open(ctx context.Context, s3cfg config.S3Config, dir string, logger zerolog.Logger) (cart.Store, error) {
	if s3cfg.Enabled {
		store, err := NewS3Store(ctx, s3cfg.Bucket, s3cfg.Region, s3cfg.Prefix, logger)
		if err == nil {
			return store, nil
		}
		logger.Warn().
			Err(err).
			Str("bucket", s3cfg.Bucket).
			Str("fallback_dir", dir).
			Msg("failed to initialise S3 cart store, falling back to local directory")
	}
	return NewFileStore(dir, logger)
}

// encode serialises a cart as gzip-compressed JSON.
func encode(c *cart.Cart) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress cart: %w", err)
	}
	return buf.Bytes(), nil
}

// decode reads a cart written by encode.
func decode(r io.Reader) (*cart.Cart, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer zr.Close()

	c := cart.New()
	if err := json.NewDecoder(zr).Decode(c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []cart.Line{}
	}
	return c, nil
}
