package chat

import (
	"testing"

	"github.com/samsaffron/mdstream/internal/markdown"
)

func key(n int) CacheKey {
	return CacheKey{Fingerprint: uint64(n), Width: 80}
}

func TestBlockCache_PutAndGet(t *testing.T) {
	cache := NewBlockCache(3)

	cache.Put(key(1), &RenderedBlock{Rendered: "block1", Height: 5})
	cache.Put(key(2), &RenderedBlock{Rendered: "block2", Height: 3})

	if got := cache.Get(key(1)); got == nil || got.Rendered != "block1" {
		t.Errorf("Get(1) = %v, want block1", got)
	}
	if got := cache.Get(key(2)); got == nil || got.Height != 3 {
		t.Errorf("Get(2) = %v, want block2", got)
	}
	if got := cache.Get(key(3)); got != nil {
		t.Errorf("Get(3) = %v, want nil", got)
	}
	if hits, misses := cache.HitRate(); hits != 2 || misses != 1 {
		t.Errorf("HitRate() = %d, %d, want 2, 1", hits, misses)
	}
}

func TestBlockCache_WidthIsPartOfKey(t *testing.T) {
	cache := NewBlockCache(10)
	block := markdown.Block{Kind: markdown.Paragraph, Content: "hello"}

	cache.Put(KeyFor(block, 80), &RenderedBlock{Rendered: "wide"})
	if cache.Get(KeyFor(block, 40)) != nil {
		t.Error("rendering at another width should miss")
	}
	same := markdown.Block{Kind: markdown.Paragraph, Content: "hello"}
	if got := cache.Get(KeyFor(same, 80)); got == nil || got.Rendered != "wide" {
		t.Errorf("equal block should hit, got %v", got)
	}
}

func TestBlockCache_LRUEviction(t *testing.T) {
	cache := NewBlockCache(3)

	cache.Put(key(1), &RenderedBlock{})
	cache.Put(key(2), &RenderedBlock{})
	cache.Put(key(3), &RenderedBlock{})

	// Touch 1 so 2 becomes the oldest.
	cache.Get(key(1))
	cache.Put(key(4), &RenderedBlock{})

	for _, n := range []int{1, 3, 4} {
		if cache.Get(key(n)) == nil {
			t.Errorf("%d should not have been evicted", n)
		}
	}
	if cache.Get(key(2)) != nil {
		t.Error("2 should have been evicted")
	}
}

func TestBlockCache_Update(t *testing.T) {
	cache := NewBlockCache(3)

	cache.Put(key(1), &RenderedBlock{Rendered: "original"})
	cache.Put(key(1), &RenderedBlock{Rendered: "updated"})

	got := cache.Get(key(1))
	if got == nil || got.Rendered != "updated" {
		t.Errorf("Get(1).Rendered = %v, want 'updated'", got)
	}
	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1", cache.Size())
	}
}

func TestBlockCache_GetOrRender(t *testing.T) {
	cache := NewBlockCache(3)
	calls := 0
	render := func() *RenderedBlock {
		calls++
		return &RenderedBlock{Rendered: "x"}
	}

	block := markdown.Block{Kind: markdown.Paragraph, Content: "x"}
	cache.GetOrRender(key(1), block, render)
	cache.GetOrRender(key(1), block, render)
	if calls != 1 {
		t.Errorf("render called %d times, want 1", calls)
	}
}

func TestBlockCache_GetOrRenderChecksSource(t *testing.T) {
	cache := NewBlockCache(3)
	render := func(s string) func() *RenderedBlock {
		return func() *RenderedBlock { return &RenderedBlock{Rendered: s} }
	}
	a := markdown.Block{Kind: markdown.Paragraph, Content: "a"}
	b := markdown.Block{Kind: markdown.Paragraph, Content: "b"}

	// both blocks under one key, as with colliding fingerprints
	cache.GetOrRender(key(1), a, render("A"))
	if got := cache.GetOrRender(key(1), b, render("B")); got.Rendered != "B" {
		t.Errorf("different block under the same key = %q, want B", got.Rendered)
	}
	if got := cache.GetOrRender(key(1), b, render("stale")); got.Rendered != "B" {
		t.Errorf("equal block should hit, got %q", got.Rendered)
	}
	if hits, misses := cache.HitRate(); hits != 1 || misses != 2 {
		t.Errorf("HitRate() = %d, %d, want 1, 2", hits, misses)
	}

	// entries stored without a source never satisfy a source lookup
	cache.Put(key(2), &RenderedBlock{Rendered: "plain"})
	if got := cache.GetOrRender(key(2), a, render("A")); got.Rendered != "A" {
		t.Errorf("Put entry reused for a block lookup: %q", got.Rendered)
	}
}

func TestBlockCache_VariantIsPartOfKey(t *testing.T) {
	cache := NewBlockCache(10)
	block := markdown.Block{Kind: markdown.CodeBlock, Content: "x := 1"}
	plain := KeyFor(block, 80)
	styled := plain
	styled.Variant = "monokai"

	cache.Put(plain, &RenderedBlock{Rendered: "plain"})
	if cache.Get(styled) != nil {
		t.Error("another variant should miss")
	}
}

func TestBlockCache_RemoveAndInvalidate(t *testing.T) {
	cache := NewBlockCache(10)
	for i := range 5 {
		cache.Put(key(i), &RenderedBlock{})
	}

	cache.Remove(key(0))
	if cache.Get(key(0)) != nil || cache.Size() != 4 {
		t.Errorf("after Remove: size %d", cache.Size())
	}

	cache.InvalidateAll()
	if cache.Size() != 0 {
		t.Errorf("Size() after InvalidateAll = %d, want 0", cache.Size())
	}
	for i := range 5 {
		if cache.Get(key(i)) != nil {
			t.Errorf("key %d should be gone after InvalidateAll", i)
		}
	}
}

func TestBlockCache_ConcurrentAccess(t *testing.T) {
	cache := NewBlockCache(100)
	done := make(chan bool)

	go func() {
		for i := range 1000 {
			cache.Put(key(i%100), &RenderedBlock{Height: i})
		}
		done <- true
	}()

	go func() {
		for i := range 1000 {
			cache.Get(key(i % 100))
		}
		done <- true
	}()

	<-done
	<-done
}
