package cartstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ecoshopy/internal/cart"

	"github.com/rs/zerolog"
)

// fileStore implements cart.Store on a local directory, one file per cart.
type fileStore struct {
	dir    string
	logger zerolog.Logger
}

// NewFileStore creates a file-based cart store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string, logger zerolog.Logger) (cart.Store, error) {
	logger = logger.With().Str("component", "file-cart-store").Logger()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("failed to create cart directory")
		return nil, fmt.Errorf("failed to create cart directory %s: %w", dir, err)
	}

	logger.Info().Str("dir", dir).Msg("file cart store initialised")

	return &fileStore{
		dir:    dir,
		logger: logger,
	}, nil
}

func (s *fileStore) path(id string) string {
	return filepath.Join(s.dir, id+snapshotExt)
}

// Load reads the cart snapshot for id, returning an empty cart if none exists.
func (s *fileStore) Load(ctx context.Context, id string) (*cart.Cart, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	file, err := os.Open(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug().Str("cart_id", id).Msg("no saved cart, starting empty")
			return cart.New(), nil
		}
		s.logger.Error().Err(err).Str("cart_id", id).Msg("failed to open cart file")
		return nil, fmt.Errorf("failed to open cart %s: %w", id, err)
	}
	defer file.Close()

	c, err := decode(file)
	if err != nil {
		s.logger.Error().Err(err).Str("cart_id", id).Msg("failed to read cart file")
		return nil, fmt.Errorf("failed to read cart %s: %w", id, err)
	}

	return c, nil
}

// Save writes the snapshot to a temporary file and renames it into place so
// readers never observe a partial write.
func (s *fileStore) Save(ctx context.Context, id string, c *cart.Cart) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	data, err := encode(c)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, id+".*.tmp")
	if err != nil {
		s.logger.Error().Err(err).Str("cart_id", id).Msg("failed to create temporary cart file")
		return fmt.Errorf("failed to save cart %s: %w", id, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to save cart %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save cart %s: %w", id, err)
	}
	if err := os.Rename(tmpName, s.path(id)); err != nil {
		os.Remove(tmpName)
		s.logger.Error().Err(err).Str("cart_id", id).Msg("failed to replace cart file")
		return fmt.Errorf("failed to save cart %s: %w", id, err)
	}

	s.logger.Debug().Str("cart_id", id).Int("lines", len(c.Items)).Msg("cart saved")

	return nil
}

// Delete removes the snapshot for id.
func (s *fileStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error().Err(err).Str("cart_id", id).Msg("failed to delete cart file")
		return fmt.Errorf("failed to delete cart %s: %w", id, err)
	}

	return nil
}
