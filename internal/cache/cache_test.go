package cache

import (
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory(time.Minute, time.Minute)

	if _, found := m.Get(Key("abc")); found {
		t.Fatal("unexpected hit on empty cache")
	}

	if err := m.Set(Key("abc"), []byte("payload"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, found := m.Get(Key("abc"))
	if !found || string(v) != "payload" {
		t.Errorf("expected payload hit, got %q found=%v", v, found)
	}
}

func TestDisk_RoundTripAndExpiry(t *testing.T) {
	d := NewDisk(t.TempDir(), time.Minute)

	if err := d.Set("k1", []byte("persisted"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, found := d.Get("k1")
	if !found || string(v) != "persisted" {
		t.Fatalf("expected persisted hit, got %q found=%v", v, found)
	}

	if err := d.Set("k2", []byte("stale"), -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found := d.Get("k2"); found {
		t.Error("expected expired entry to miss")
	}
}

func TestLayered_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	warm := NewLayered(time.Minute, dir, time.Minute)
	if err := warm.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A fresh layered cache over the same dir has a cold memory layer
	// and must fall through to disk.
	cold := NewLayered(time.Minute, dir, time.Minute)
	v, found := cold.Get("k")
	if !found || string(v) != "v" {
		t.Fatalf("expected disk fallthrough hit, got %q found=%v", v, found)
	}
}
