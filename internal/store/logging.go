package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abhisek/prelims/internal/docstore"
)

// LoggingStore is a decorator that logs every store call with its latency.
type LoggingStore struct {
	inner  docstore.Store
	logger *slog.Logger
}

// WithLogging wraps a Store with structured logging.
func WithLogging(s docstore.Store, logger *slog.Logger) *LoggingStore {
	return &LoggingStore{inner: s, logger: logger}
}

func (l *LoggingStore) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	start := time.Now()
	doc, err := l.inner.Get(ctx, collection, id)
	l.log(ctx, "get", collection, id, start, err, slog.Int64("version", doc.Version))
	return doc, err
}

func (l *LoggingStore) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	start := time.Now()
	err := l.inner.Set(ctx, collection, id, doc)
	l.log(ctx, "set", collection, id, start, err)
	return err
}

func (l *LoggingStore) Update(ctx context.Context, collection, id string, upd docstore.Update) error {
	start := time.Now()
	err := l.inner.Update(ctx, collection, id, upd)
	l.log(ctx, "update", collection, id, start, err,
		slog.Int("ops", len(upd.Fields)),
		slog.Int64("if_version", upd.IfVersion))
	return err
}

// Close closes the wrapped store when it holds connections.
func (l *LoggingStore) Close() error {
	if c, ok := l.inner.(docstore.Closer); ok {
		return c.Close()
	}
	return nil
}

func (l *LoggingStore) log(ctx context.Context, op, collection, id string, start time.Time, err error, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.String("collection", collection),
		slog.String("id", id),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()),
	}
	attrs = append(attrs, extra...)

	level := slog.LevelDebug
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelWarn
		if errors.Is(err, docstore.ErrNotFound) {
			level = slog.LevelDebug
		}
	}
	l.logger.LogAttrs(ctx, level, "docstore call", attrs...)
}
