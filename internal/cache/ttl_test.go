package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, -time.Second)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache[string, string]()

	c.Set("a", "x", time.Minute)
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
}
