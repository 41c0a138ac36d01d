package chat

import (
	"fmt"
	"sync"
	"testing"
)

func TestDirectoryRegisterOverwrites(t *testing.T) {
	d := NewDirectory()

	if _, had := d.Register("u1", "c1"); had {
		t.Fatalf("first register should not evict")
	}

	evicted, had := d.Register("u1", "c2")
	if !had || evicted != "c1" {
		t.Fatalf("second register should evict c1, got evicted=%q had=%v", evicted, had)
	}

	got, ok := d.Lookup("u1")
	if !ok || got != "c2" {
		t.Fatalf("lookup after overwrite = %q,%v, want c2,true", got, ok)
	}
	if d.Len() != 1 {
		t.Fatalf("directory should hold exactly one entry per user, got %d", d.Len())
	}
}

func TestDirectoryStaleUnregisterIgnored(t *testing.T) {
	d := NewDirectory()

	d.Register("u1", "c1")
	d.Register("u1", "c2") // 重连：c2 顶掉 c1

	// c1 迟到的断开不应删除 c2 的映射
	if removed := d.Unregister("u1", "c1"); removed {
		t.Fatalf("stale unregister must be a no-op")
	}
	if got, ok := d.Lookup("u1"); !ok || got != "c2" {
		t.Fatalf("mapping lost after stale unregister: %q,%v", got, ok)
	}

	if removed := d.Unregister("u1", "c2"); !removed {
		t.Fatalf("current connection must be able to unregister")
	}
	if _, ok := d.Lookup("u1"); ok {
		t.Fatalf("entry should be gone after matching unregister")
	}
}

func TestDirectoryUnregisterUnknownUser(t *testing.T) {
	d := NewDirectory()
	if removed := d.Unregister("ghost", "c1"); removed {
		t.Fatalf("unregister of unknown user must return false")
	}
}

func TestDirectorySnapshotReflectsRegisteredSet(t *testing.T) {
	d := NewDirectory()
	d.Register("a", "c1")
	d.Register("b", "c2")
	d.Register("c", "c3")
	d.Unregister("b", "c2")

	snap := d.Snapshot()
	want := []string{"a", "c"}
	if len(snap) != len(want) {
		t.Fatalf("snapshot = %v, want %v", snap, want)
	}
	for i := range want {
		if snap[i] != want[i] {
			t.Fatalf("snapshot = %v, want %v", snap, want)
		}
	}
}

func TestDirectoryConcurrentChurn(t *testing.T) {
	d := NewDirectory()

	const users = 8
	const rounds = 100

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			uid := fmt.Sprintf("user-%d", u)
			for r := 0; r < rounds; r++ {
				cid := fmt.Sprintf("conn-%d-%d", u, r)
				d.Register(uid, cid)
				d.Unregister(uid, cid)
			}
			d.Register(uid, fmt.Sprintf("conn-%d-final", u))
		}(u)
	}
	wg.Wait()

	// 静默后快照应等于仍登记的集合
	if got := d.Len(); got != users {
		t.Fatalf("after quiescence directory has %d entries, want %d", got, users)
	}
	for u := 0; u < users; u++ {
		uid := fmt.Sprintf("user-%d", u)
		cid, ok := d.Lookup(uid)
		if !ok || cid != fmt.Sprintf("conn-%d-final", u) {
			t.Fatalf("user %s maps to %q, want final conn", uid, cid)
		}
	}
}
