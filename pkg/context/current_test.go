package context

import (
	"context"
	"sync"
	"testing"

	. "github.com/onsi/gomega"
)

func TestCurrent_SetGet(t *testing.T) {
	RegisterTestingT(t)

	current := NewCurrent()
	current.Set(RequestIDKey, "abc")
	current.Set("count", 3)

	id, ok := current.GetString(RequestIDKey)
	Expect(ok).To(BeTrue())
	Expect(id).To(Equal("abc"))
	Expect(current.RequestID()).To(Equal("abc"))

	_, ok = current.GetString("count")
	Expect(ok).To(BeFalse())

	Expect(current.Exists("count")).To(BeTrue())
	Expect(current.Exists("missing")).To(BeFalse())
	Expect(current.All()).To(HaveLen(2))
}

func TestCurrent_Context(t *testing.T) {
	RegisterTestingT(t)

	_, ok := FromContext(context.Background())
	Expect(ok).To(BeFalse())
	Expect(GetCurrent(context.Background()).All()).To(BeEmpty())

	current := NewCurrent()
	ctx := WithCurrent(context.Background(), current)

	Expect(GetCurrent(ctx)).To(BeIdenticalTo(current))
}

func TestCurrent_ConcurrentAccess(t *testing.T) {
	current := NewCurrent()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			current.Set("k", i)
			current.Get("k")
		}(i)
	}
	wg.Wait()
}
