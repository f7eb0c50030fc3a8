package cmap

import (
	"sync"
	"testing"
)

func TestSetGet(t *testing.T) {
	m := New[uint64, string]()
	m.Set(1, "one")

	got, ok := m.Get(1)
	if !ok || got != "one" {
		t.Fatalf("Get(1) = %q, %v, want %q, true", got, ok, "one")
	}
	if _, ok := m.Get(2); ok {
		t.Fatal("Get(2) found a value for a missing key")
	}
}

func TestSetIfAbsent(t *testing.T) {
	m := New[uint64, string]()

	if !m.SetIfAbsent(7, "first") {
		t.Fatal("SetIfAbsent on empty map returned false")
	}
	if m.SetIfAbsent(7, "second") {
		t.Fatal("SetIfAbsent on existing key returned true")
	}
	got, _ := m.Get(7)
	if got != "first" {
		t.Fatalf("value after second SetIfAbsent = %q, want %q", got, "first")
	}
}

func TestDeleteAndPop(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)

	m.Delete("a")
	if m.Has("a") {
		t.Fatal("key present after Delete")
	}

	val, ok := m.Pop("b")
	if !ok || val != 2 {
		t.Fatalf("Pop(b) = %d, %v, want 2, true", val, ok)
	}
	if _, ok := m.Pop("b"); ok {
		t.Fatal("second Pop returned ok")
	}
}

func TestCountAndClear(t *testing.T) {
	m := NewWithShards[int, int](4)
	for i := 0; i < 100; i++ {
		m.Set(i, i)
	}
	if got := m.Count(); got != 100 {
		t.Fatalf("Count = %d, want 100", got)
	}

	m.Clear()
	if got := m.Count(); got != 0 {
		t.Fatalf("Count after Clear = %d, want 0", got)
	}
}

func TestInvalidShardCountFallsBack(t *testing.T) {
	for _, n := range []int{0, -1, 3, 17} {
		m := NewWithShards[int, int](n)
		if got := len(m.shards); got != DefaultShardCount {
			t.Fatalf("shard count for %d = %d, want %d", n, got, DefaultShardCount)
		}
	}
}

func TestRangeStopsEarly(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 50; i++ {
		m.Set(i, i)
	}

	seen := 0
	m.Range(func(_ int, _ int) bool {
		seen++
		return seen < 10
	})
	if seen != 10 {
		t.Fatalf("Range visited %d entries, want 10", seen)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int, int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := base*200 + i
				m.Set(key, key)
				if v, ok := m.Get(key); !ok || v != key {
					t.Errorf("Get(%d) = %d, %v", key, v, ok)
				}
			}
		}(g)
	}
	wg.Wait()

	if got := m.Count(); got != 8*200 {
		t.Fatalf("Count after concurrent writes = %d, want %d", got, 8*200)
	}
}
