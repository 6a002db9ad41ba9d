package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"

	backend "github.com/redis/go-redis/v9"

	loamstore "github.com/patchbay-io/patchbay/pkg/adapters/loam"
	"github.com/patchbay-io/patchbay/pkg/adapters/memory"
	redisstore "github.com/patchbay-io/patchbay/pkg/adapters/redis"
	"github.com/patchbay-io/patchbay/pkg/persistence/middleware"
	"github.com/patchbay-io/patchbay/pkg/ports"
)

// Keys come from the environment, not flags, so they never show up in
// `ps` output or shell history.
const (
	encryptionKeyEnv          = "PATCHBAY_ENCRYPTION_KEY"
	encryptionKeyFallbacksEnv = "PATCHBAY_ENCRYPTION_KEY_FALLBACKS"
)

// Options carries the store selection flags shared by the commands.
type Options struct {
	Dir       string // project library directory
	RedisURL  string // redis connection URL; overrides Dir when set
	Ephemeral bool   // in-memory store, projects lost on exit
	Compress  bool   // snappy-compress documents at rest
	LogLevel  string
}

// Backend is an opened project store plus whatever came with it: a
// distributed lock when the backend is shared, the raw library handle
// when it can watch the filesystem, and the cleanup.
type Backend struct {
	Store  ports.ProjectStore
	Locker ports.DistributedLocker

	// Library is set when the base store is the file library, before any
	// middleware wrapping. Watch mode needs the raw handle.
	Library *loamstore.Library

	close func() error
}

// Close releases the backend's resources.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend builds the project store from the flags. Precedence:
// ephemeral, then redis, then the file library at Dir.
func OpenBackend(ctx context.Context, opts Options, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	// 1. Base store
	switch {
	case opts.Ephemeral:
		b.Store = memory.NewStore()
		logger.Info("using in-memory store; projects are lost on exit")

	case opts.RedisURL != "":
		cfg, err := backend.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := backend.NewClient(cfg)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Addr, err)
		}
		b.Store = redisstore.NewFromClient(client)
		b.Locker = redisstore.NewLocker(client, "patchbay:")
		b.close = client.Close
		logger.Info("using redis store", "addr", cfg.Addr)

	default:
		lib, err := loamstore.NewLibrary(opts.Dir)
		if err != nil {
			return nil, err
		}
		b.Store = lib
		b.Library = lib
		logger.Info("using project library", "dir", lib.Dir())
	}

	// 2. Middleware. Compression goes outermost so documents are
	// compressed before encryption; ciphertext does not compress.
	var mws []middleware.Middleware
	if opts.Compress {
		mws = append(mws, middleware.NewCompressionMiddleware())
	}
	encMW, err := encryptionFromEnv()
	if err != nil {
		return nil, err
	}
	if encMW != nil {
		mws = append(mws, encMW)
		logger.Info("encryption at rest enabled")
	}
	if len(mws) > 0 {
		b.Store = middleware.Chain(b.Store, mws...)
	}

	return b, nil
}

// encryptionFromEnv builds the encryption middleware when a key is
// configured. The middleware constructor panics on bad key sizes, so
// keys are checked here where a flag-style error can be returned.
func encryptionFromEnv() (middleware.Middleware, error) {
	raw := strings.TrimSpace(os.Getenv(encryptionKeyEnv))
	if raw == "" {
		return nil, nil
	}

	active, err := decodeKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", encryptionKeyEnv, err)
	}

	var fallbacks [][]byte
	if rawList := strings.TrimSpace(os.Getenv(encryptionKeyFallbacksEnv)); rawList != "" {
		for _, part := range strings.Split(rawList, ",") {
			key, err := decodeKey(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", encryptionKeyFallbacksEnv, err)
			}
			fallbacks = append(fallbacks, key)
		}
	}

	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallbacks,
	}), nil
}

func decodeKey(raw string) ([]byte, error) {
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes (64 hex characters), got %d", len(key))
	}
	return key, nil
}
