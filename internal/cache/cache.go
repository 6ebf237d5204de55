// Package cache provides the id-keyed local cache that makes document
// reacquisition idempotent: once a source's extracted passages are
// cached, acquiring the same source id again never re-downloads it.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is the minimal contract shared by the memory and disk layers.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key namespaces a source id for cache storage. Versioned so a format
// change invalidates old entries instead of misreading them.
func Key(sourceID string) string {
	return "citepipe:v1:" + sourceID
}

// Memory is the in-process layer backed by go-cache.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates the in-process cache layer.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	if v, found := m.c.Get(key); found {
		return v.([]byte), true
	}
	return nil, false
}

func (m *Memory) Set(key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.c.Delete(key)
	return nil
}

func (m *Memory) Clear() error {
	m.c.Flush()
	return nil
}

// Layered combines the memory and disk layers: reads check memory
// first and promote disk hits, writes go to both.
type Layered struct {
	memory Cache
	disk   Cache
}

// NewLayered creates a memory+disk cache rooted at dir.
func NewLayered(memoryTTL time.Duration, dir string, diskTTL time.Duration) *Layered {
	return &Layered{
		memory: NewMemory(memoryTTL, 10*time.Minute),
		disk:   NewDisk(dir, diskTTL),
	}
}

func (l *Layered) Get(key string) ([]byte, bool) {
	if v, found := l.memory.Get(key); found {
		return v, true
	}
	if v, found := l.disk.Get(key); found {
		_ = l.memory.Set(key, v, 0)
		return v, true
	}
	return nil, false
}

func (l *Layered) Set(key string, value []byte, ttl time.Duration) error {
	if err := l.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return l.disk.Set(key, value, ttl)
}

func (l *Layered) Delete(key string) error {
	_ = l.memory.Delete(key)
	return l.disk.Delete(key)
}

func (l *Layered) Clear() error {
	_ = l.memory.Clear()
	return l.disk.Clear()
}
