package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskmanagement/internal/core/port"

	. "github.com/onsi/gomega"
)

func TestMemoryRepository_SetAndGet(t *testing.T) {
	RegisterTestingT(t)

	cache := NewMemoryRepository(time.Minute)
	ctx := context.Background()

	Expect(cache.Set(ctx, "cache:/task:1", []byte("payload"), 0)).To(Succeed())

	value, err := cache.Get(ctx, "cache:/task:1")
	Expect(err).To(BeNil())
	Expect(string(value)).To(Equal("payload"))
}

func TestMemoryRepository_Miss(t *testing.T) {
	RegisterTestingT(t)

	_, err := NewMemoryRepository(time.Minute).Get(context.Background(), "missing")

	Expect(errors.Is(err, port.ErrCacheMiss)).To(BeTrue())
}

func TestMemoryRepository_Expiry(t *testing.T) {
	RegisterTestingT(t)

	cache := NewMemoryRepository(time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "short", []byte("x"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, err := cache.Get(ctx, "short")
	Expect(errors.Is(err, port.ErrCacheMiss)).To(BeTrue())
}

func TestMemoryRepository_DeleteByPrefix(t *testing.T) {
	RegisterTestingT(t)

	cache := NewMemoryRepository(time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "cache:/task:a", []byte("1"), 0)
	cache.Set(ctx, "cache:/task/:id:b", []byte("2"), 0)
	cache.Set(ctx, "cache:/health:c", []byte("3"), 0)

	Expect(cache.DeleteByPrefix(ctx, "cache:/task")).To(Succeed())

	_, err := cache.Get(ctx, "cache:/task:a")
	Expect(err).To(MatchError(port.ErrCacheMiss))

	_, err = cache.Get(ctx, "cache:/task/:id:b")
	Expect(err).To(MatchError(port.ErrCacheMiss))

	value, err := cache.Get(ctx, "cache:/health:c")
	Expect(err).To(BeNil())
	Expect(string(value)).To(Equal("3"))
}

func TestMemoryRepository_Delete(t *testing.T) {
	RegisterTestingT(t)

	cache := NewMemoryRepository(time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "k", []byte("v"), 0)
	Expect(cache.Delete(ctx, "k")).To(Succeed())

	_, err := cache.Get(ctx, "k")
	Expect(err).To(MatchError(port.ErrCacheMiss))
	Expect(cache.Close()).To(Succeed())
}
