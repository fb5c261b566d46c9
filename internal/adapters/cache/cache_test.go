package cache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		value any
		want  any
	}{
		{nil, nil},
		{true, true},
		{"hello", "hello"},
		{float64(3.14), float64(3.14)},
		// JSON numbers decode to float64.
		{42, float64(42)},
		{[]any{"a", "b"}, []any{"a", "b"}},
		{map[string]any{"k": "v"}, map[string]any{"k": "v"}},
	}

	for _, tc := range cases {
		data, err := encodeValue(tc.value)
		if err != nil {
			t.Fatalf("encode %v failed: %v", tc.value, err)
		}
		got, err := decodeValue(data)
		if err != nil {
			t.Fatalf("decode %v failed: %v", tc.value, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Round trip of %v: expected %v, got %v", tc.value, tc.want, got)
		}
	}
}

func TestEncodeRejectsUnsupportedShapes(t *testing.T) {
	cases := []any{
		func() {},
		make(chan int),
		map[int]string{1: "a"},
		[]any{"ok", map[int]string{1: "bad"}},
		map[string]any{"nested": make(chan int)},
	}

	for _, value := range cases {
		_, err := encodeValue(value)
		if err == nil {
			t.Errorf("Expected %T to be rejected", value)
			continue
		}
		var serr *SerializationError
		if !errors.As(err, &serr) {
			t.Errorf("Expected *SerializationError for %T, got %T", value, err)
		}
	}
}

func TestEncodeAcceptsStructs(t *testing.T) {
	type payload struct {
		Name  string   `json:"name"`
		Score float64  `json:"score"`
		Tags  []string `json:"tags"`
	}
	if _, err := encodeValue(payload{Name: "x", Score: 0.5, Tags: []string{"a"}}); err != nil {
		t.Errorf("Struct of supported shapes must encode: %v", err)
	}
}

// failingBackend simulates a broken store: every operation errors.
type failingBackend struct{}

func (failingBackend) Name() string                    { return "broken" }
func (failingBackend) Connected(context.Context) bool  { return false }
func (failingBackend) Len(context.Context) int         { return 0 }
func (failingBackend) Close() error                    { return nil }
func (failingBackend) Get(context.Context, string) (any, bool, error) {
	return nil, false, errors.New("backend down")
}
func (failingBackend) Set(context.Context, string, any, time.Duration) error {
	return errors.New("backend down")
}
func (failingBackend) Delete(context.Context, string) error {
	return errors.New("backend down")
}

func TestCacheSwallowsBackendErrors(t *testing.T) {
	c := New(failingBackend{}, zap.NewNop())
	ctx := context.Background()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Backend error must be reported as a miss")
	}
	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Backend write failure must be swallowed, got %v", err)
	}
	c.Delete(ctx, "k") // must not panic

	stats := c.Stats(ctx)
	if stats.Connected {
		t.Error("Stats must report the backend as disconnected")
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 recorded miss, got %d", stats.Misses)
	}
}

// serializingBackend returns SerializationError from the codec the way
// the remote backend does, without a live server.
type serializingBackend struct {
	values map[string][]byte
}

func (b *serializingBackend) Name() string                   { return "serializing" }
func (b *serializingBackend) Connected(context.Context) bool { return true }
func (b *serializingBackend) Len(context.Context) int        { return len(b.values) }
func (b *serializingBackend) Close() error                   { return nil }

func (b *serializingBackend) Get(_ context.Context, key string) (any, bool, error) {
	data, ok := b.values[key]
	if !ok {
		return nil, false, nil
	}
	value, err := decodeValue(data)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (b *serializingBackend) Set(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return err
	}
	b.values[key] = data
	return nil
}

func (b *serializingBackend) Delete(_ context.Context, key string) error {
	delete(b.values, key)
	return nil
}

func TestCacheSurfacesSerializationError(t *testing.T) {
	c := New(&serializingBackend{values: map[string][]byte{}}, zap.NewNop())
	ctx := context.Background()

	err := c.Set(ctx, "bad", map[int]string{1: "a"}, time.Minute)
	if err == nil {
		t.Fatal("Expected serialization failure to surface")
	}
	var serr *SerializationError
	if !errors.As(err, &serr) {
		t.Errorf("Expected *SerializationError, got %T", err)
	}

	// A supported value still round-trips.
	if err := c.Set(ctx, "good", "value", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, ok := c.Get(ctx, "good")
	if !ok || value != "value" {
		t.Errorf("Expected (value, true), got (%v, %v)", value, ok)
	}
}

func TestCacheHitMissCounters(t *testing.T) {
	c := New(NewMemoryBackend(8, zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	c.Get(ctx, "absent")
	c.Set(ctx, "k", "v", time.Minute)
	c.Get(ctx, "k")
	c.Get(ctx, "k")

	stats := c.Stats(ctx)
	if stats.Hits != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.Backend != "memory" {
		t.Errorf("Expected memory backend, got %s", stats.Backend)
	}
	if stats.Entries != 1 {
		t.Errorf("Expected 1 entry, got %d", stats.Entries)
	}
}
