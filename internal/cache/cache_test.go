package cache

import (
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velofit/engine/pkg/core"
)

func TestImageCache_EmptyByDefault(t *testing.T) {
	c := NewImageCache()

	_, _, ok := c.Get()
	assert.False(t, ok)
	assert.False(t, c.IsLoading())
	assert.Empty(t, c.Path())
}

func TestImageCache_StoreAndGet(t *testing.T) {
	c := NewImageCache()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	info := core.ImageInfo{
		DisplayWidth: 160, DisplayHeight: 120,
		NaturalWidth: 320, NaturalHeight: 240,
	}

	c.SetLoading(true)
	c.Store(img, info, "/tmp/rider.jpg")

	got, gotInfo, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, img, got)
	assert.Equal(t, info, gotInfo)
	assert.Equal(t, "/tmp/rider.jpg", c.Path())
	assert.False(t, c.IsLoading(), "store clears the loading flag")
}

func TestImageCache_LoadingClearedForRetry(t *testing.T) {
	c := NewImageCache()

	c.SetLoading(true)
	assert.True(t, c.IsLoading())

	// A failed load clears the flag without storing anything.
	c.SetLoading(false)
	assert.False(t, c.IsLoading())
	_, _, ok := c.Get()
	assert.False(t, ok)
}

func TestImageCache_Reset(t *testing.T) {
	c := NewImageCache()
	c.Store(image.NewRGBA(image.Rect(0, 0, 1, 1)), core.ImageInfo{NaturalWidth: 1, NaturalHeight: 1}, "x.png")

	c.Reset()

	_, _, ok := c.Get()
	assert.False(t, ok)
	assert.Empty(t, c.Path())
}

func TestSnapshotCache_SetGetDelete(t *testing.T) {
	c := NewSnapshotCache()

	snap := core.Snapshot{
		Name:    "baseline",
		Points:  []core.Point{{X: 1, Y: 2}},
		SavedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	c.Set(snap)

	got, ok := c.Get("baseline")
	require.True(t, ok)
	assert.Equal(t, snap, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	c.Delete("baseline")
	_, ok = c.Get("baseline")
	assert.False(t, ok)
}

func TestSnapshotCache_Reset(t *testing.T) {
	c := NewSnapshotCache()
	c.Set(core.Snapshot{Name: "a"})
	c.Set(core.Snapshot{Name: "b"})

	c.Reset()

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestSafeCounter_Concurrent(t *testing.T) {
	var c SafeCounter
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, c.Value())

	c.Set(7)
	assert.Equal(t, 7, c.Value())
}
