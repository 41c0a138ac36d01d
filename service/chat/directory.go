package chat

import (
	"sort"
	"sync"
)

// Directory 在线目录：userId -> 活跃连接。
//
// 每个用户同一时刻至多一条映射：同一用户的新连接直接覆盖（顶掉）旧映射。
// 注销采用 compare-and-delete：只有当前持有映射的连接才能删除它，
// 这样旧连接迟到的断开事件不会误删新连接的映射。
// 实例化使用，不做包级单例；测试可各自持有独立目录。
type Directory struct {
	mu      sync.RWMutex
	entries map[string]dirEntry
	genSeq  uint64
}

type dirEntry struct {
	connID string
	gen    uint64 // 注册代次，单调递增
}

func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]dirEntry)}
}

// Register 无条件登记/覆盖；返回被顶掉的旧连接ID（若有）。
func (d *Directory) Register(userID, connID string) (evicted string, hadOld bool) {
	if userID == "" || connID == "" {
		return "", false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	old, ok := d.entries[userID]
	d.genSeq++
	d.entries[userID] = dirEntry{connID: connID, gen: d.genSeq}
	if ok && old.connID != connID {
		return old.connID, true
	}
	return "", false
}

// Lookup 查用户当前连接。
func (d *Directory) Lookup(userID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[userID]
	if !ok {
		return "", false
	}
	return e.connID, true
}

// Unregister 仅当 connID 仍持有该用户映射时删除；
// 迟到的旧连接断开不会清掉新连接的登记。
func (d *Directory) Unregister(userID, connID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[userID]
	if !ok || e.connID != connID {
		return false
	}
	delete(d.entries, userID)
	return true
}

// Snapshot 当前在线用户ID集合（排序保证稳定输出）。
func (d *Directory) Snapshot() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.entries))
	for uid := range d.entries {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// Len 在线人数。
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
