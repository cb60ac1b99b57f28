package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Loader fills a Store from a Fetcher and keeps entries consistent with their
// provider's index: an entry written before the index was last refreshed is
// fetched again the next time it is asked for.
type Loader struct {
	store   Store
	fetcher Fetcher
	logger  zerolog.Logger
	now     func() time.Time
}

type LoaderOption func(*Loader)

func WithLogger(l zerolog.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

func WithClock(now func() time.Time) LoaderOption {
	return func(ld *Loader) { ld.now = now }
}

func NewLoader(store Store, fetcher Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:   store,
		fetcher: fetcher,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load returns the payload stored under key, fetching it from endpoint first
// when nothing is stored yet or refresh is set. A fetch that yields nothing
// is still written, so the entry records when it was last checked.
func (l *Loader) Load(ctx context.Context, key, endpoint string, refresh bool) (json.RawMessage, error) {
	entry, ok, err := l.store.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	if ok && !refresh {
		return entry.Body, nil
	}

	entry = &Entry{
		Body:    Canonical(l.fetcher.Fetch(ctx, endpoint)),
		Updated: l.now(),
	}
	if err := l.store.Write(ctx, key, entry); err != nil {
		return nil, fmt.Errorf("write %s: %w", key, err)
	}

	l.logger.Info().
		Str("key", key).
		Str("endpoint", endpoint).
		Int("bytes", len(entry.Body)).
		Msgf("Loaded %s into cache storage", key)

	return entry.Body, nil
}

// Updated returns when key was last written, or false if it never was
func (l *Loader) Updated(ctx context.Context, key string) (time.Time, bool, error) {
	entry, ok, err := l.store.Read(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	return entry.Updated, true, nil
}

// ResolveAndLoad loads key, refreshing it when it was never loaded or when
// the provider's index has been written since. An index key is always
// current relative to itself. A missing index refreshes nothing.
func (l *Loader) ResolveAndLoad(ctx context.Context, key, endpoint string) (json.RawMessage, error) {
	itemUpdated, itemOK, err := l.Updated(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", key, err)
	}

	indexUpdated, indexOK := itemUpdated, itemOK
	if !IsIndexKey(key) {
		indexKey := IndexKey(Decode(key).Provider)
		indexUpdated, indexOK, err = l.Updated(ctx, indexKey)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", indexKey, err)
		}
	}

	fresh := itemOK && (!indexOK || !indexUpdated.After(itemUpdated))

	return l.Load(ctx, key, endpoint, !fresh)
}

// Canonical decodes raw as JSON and encodes it again in compact form.
// Anything that does not decode yields an empty payload.
func Canonical(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return json.RawMessage{}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return json.RawMessage{}
	}
	if dec.More() {
		return json.RawMessage{}
	}

	out, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage{}
	}
	return out
}
