// Package pagecache is a badger-backed cache of fetched pages. repeat
// harvests of mostly-static catalogs (the official top-250 lists change a
// handful of entries a week) skip refetching every detail page.
package pagecache

import (
	"bytes"
	"context"
	"encoding/gob"
	"net/url"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("scrapers/letterboxd/pagecache")

type page struct {
	Contents  []byte
	ExpiresAt int64
}

type Cache struct {
	db      *badger.DB
	baseUrl *url.URL
}

// Open creates a cache at dir, or an in-memory cache when dir is "".
func Open(dir, baseUrl string) (*Cache, error) {
	base, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, baseUrl: base}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) key(endpoint string) (string, error) {
	full, err := c.baseUrl.Parse(endpoint)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		full,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	return normalized, nil
}

func (c *Cache) Get(ctx context.Context, endpoint string) ([]byte, bool) {
	ctx, span := tracer.Start(ctx, "get")
	defer span.End()

	key, err := c.key(endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return nil, false
	}
	span.SetAttributes(attribute.String("cache_key", key))

	tx := c.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return nil, false
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return nil, false
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return nil, false
	}

	var cached page
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return nil, false
	}

	if time.Now().Unix() >= cached.ExpiresAt {
		span.AddEvent("delete expired cache key", trace.WithAttributes(
			attribute.String("key", key),
		))
		wtx := c.db.NewTransaction(true)
		defer wtx.Commit()
		wtx.Delete([]byte(key))
		return nil, false
	}

	return cached.Contents, true
}

func (c *Cache) Set(ctx context.Context, endpoint string, contents []byte, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "set")
	defer span.End()

	key, err := c.key(endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	var serialized bytes.Buffer
	err = gob.NewEncoder(&serialized).Encode(page{
		Contents:  contents,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize page")
		return err
	}

	tx := c.db.NewTransaction(true)
	err = tx.Set([]byte(key), serialized.Bytes())
	if err != nil {
		tx.Discard()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write item to badger")
		return err
	}
	return tx.Commit()
}
