package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	fileScheme  = "file://"
	redisScheme = "redis://"
)

// ErrArtifactNotFound is returned by a Source when nothing is stored under a reference.
var ErrArtifactNotFound = errors.New("artifact not found")

// Source fetches the raw artifact document for a reference.
type Source interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// FileSource reads artifacts from the local filesystem. Relative paths that do
// not exist as given are looked up in SearchDirs in order.
type FileSource struct {
	SearchDirs []string
}

func (s FileSource) Fetch(_ context.Context, ref string) ([]byte, error) {
	path := strings.TrimPrefix(ref, fileScheme)
	if path == "" {
		return nil, errors.New("empty artifact path")
	}

	candidates := []string{path}
	if !filepath.IsAbs(path) {
		for _, dir := range s.SearchDirs {
			candidates = append(candidates, filepath.Join(dir, path))
		}
	}

	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
}

// RedisGetter is the subset of the go-redis client RedisSource needs.
type RedisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisSource reads artifact documents stored as Redis strings under
// redis://<key> references.
type RedisSource struct {
	client RedisGetter
}

// NewRedisSource creates a RedisSource backed by client.
func NewRedisSource(client RedisGetter) *RedisSource {
	return &RedisSource{client: client}
}

// NewRedisClient opens the go-redis client used for artifact storage.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *RedisSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	key := strings.TrimPrefix(ref, redisScheme)
	if key == "" {
		return nil, errors.New("empty redis key")
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: redis key %s", ErrArtifactNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// RefSource dispatches a reference to the file or Redis source by its scheme.
type RefSource struct {
	Files FileSource
	Redis *RedisSource
}

func (s RefSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, redisScheme) {
		if s.Redis == nil {
			return nil, errors.New("redis artifact store is not configured (set REDIS_ADDR)")
		}
		return s.Redis.Fetch(ctx, ref)
	}
	return s.Files.Fetch(ctx, ref)
}
