package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/clock"
)

const (
	metaSuffix = "::meta"
	partFormat = "%s::part::%d"
)

// envelope is the metadata record written alongside a chunked payload.
type envelope struct {
	Version   string `json:"v"`
	Chunks    int    `json:"chunks"`
	WrittenAt int64  `json:"ts"` // unix milliseconds
}

// Blob stores serialized payloads of unbounded size through a Store whose
// per-entry size is capped, by splitting the payload into fixed-size chunks
// under "key::part::i" plus an envelope under "key::meta".
//
// Reads are all-or-nothing: a missing or malformed chunk, a version
// mismatch, or an envelope older than the freshness threshold all read as a
// full miss. A concurrent writer racing on the same key can therefore never
// surface a half-overwritten payload.
type Blob struct {
	store     Store
	clock     clock.Clock
	version   string
	chunkSize int
	freshness time.Duration
}

func NewBlob(store Store, clk clock.Clock, version string, chunkSize int, freshness time.Duration) *Blob {
	return &Blob{
		store:     store,
		clock:     clk,
		version:   version,
		chunkSize: chunkSize,
		freshness: freshness,
	}
}

// Write splits payload into chunks and stores them with the envelope, all
// under the same ttl.
func (b *Blob) Write(ctx context.Context, key, payload string, ttl time.Duration) error {
	chunks := splitChunks(payload, b.chunkSize)
	for i, chunk := range chunks {
		partKey := fmt.Sprintf(partFormat, key, i)
		if err := b.store.Set(ctx, partKey, chunk, ttl); err != nil {
			return fmt.Errorf("write chunk %d of %q: %w", i, key, err)
		}
	}

	meta := envelope{
		Version:   b.version,
		Chunks:    len(chunks),
		WrittenAt: b.clock.Now().UnixMilli(),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal envelope for %q: %w", key, err)
	}
	if err := b.store.Set(ctx, key+metaSuffix, string(raw), ttl); err != nil {
		return fmt.Errorf("write envelope for %q: %w", key, err)
	}
	return nil
}

// Read reassembles the payload under key. ok is false on any miss condition;
// err is non-nil only for backend or decode failures, which callers treat as
// a miss after logging.
func (b *Blob) Read(ctx context.Context, key string) (payload string, ok bool, err error) {
	rawMeta, hit, err := b.store.Get(ctx, key+metaSuffix)
	if err != nil {
		return "", false, fmt.Errorf("read envelope for %q: %w", key, err)
	}
	if !hit {
		return "", false, nil
	}

	var meta envelope
	if err := json.Unmarshal([]byte(rawMeta), &meta); err != nil {
		return "", false, fmt.Errorf("decode envelope for %q: %w", key, err)
	}
	if meta.Version != b.version || meta.Chunks < 0 {
		return "", false, nil
	}
	if b.freshness > 0 {
		age := b.clock.Now().Sub(time.UnixMilli(meta.WrittenAt))
		if age > b.freshness {
			return "", false, nil
		}
	}

	var sb strings.Builder
	for i := 0; i < meta.Chunks; i++ {
		chunk, hit, err := b.store.Get(ctx, fmt.Sprintf(partFormat, key, i))
		if err != nil {
			return "", false, fmt.Errorf("read chunk %d of %q: %w", i, key, err)
		}
		if !hit {
			// A concurrent writer or partial eviction; never return a
			// partial payload.
			return "", false, nil
		}
		sb.WriteString(chunk)
	}
	return sb.String(), true, nil
}

// WriteJSON marshals v and writes it as a chunked payload.
func (b *Blob) WriteJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload for %q: %w", key, err)
	}
	return b.Write(ctx, key, string(raw), ttl)
}

// ReadJSON reads the payload under key and unmarshals it into out.
func (b *Blob) ReadJSON(ctx context.Context, key string, out any) (bool, error) {
	payload, ok, err := b.Read(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("decode payload for %q: %w", key, err)
	}
	return true, nil
}

// Delete removes the envelope, which is sufficient to invalidate the blob.
func (b *Blob) Delete(ctx context.Context, key string) error {
	return b.store.Delete(ctx, key+metaSuffix)
}

func splitChunks(s string, size int) []string {
	if size <= 0 || s == "" {
		return []string{s}
	}
	chunks := make([]string, 0, len(s)/size+1)
	for len(s) > size {
		chunks = append(chunks, s[:size])
		s = s[size:]
	}
	return append(chunks, s)
}
