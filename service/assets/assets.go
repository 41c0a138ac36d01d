package assets

import (
	"context"
	"strings"
	"sync"
)

// Uploader 图片资源托管边界。头像、帖子图、消息图在落库前先走这里，
// 存储的是托管侧返回的 URL。默认实现不外传，原样回显（data url / 既有 URL）。
type Uploader interface {
	Upload(ctx context.Context, asset string) (url string, err error)
	Destroy(ctx context.Context, url string) error
}

type passthroughUploader struct{}

func (passthroughUploader) Upload(_ context.Context, asset string) (string, error) {
	return asset, nil
}

func (passthroughUploader) Destroy(_ context.Context, _ string) error { return nil }

var (
	mu     sync.RWMutex
	global Uploader = passthroughUploader{}
)

// SetUploader 替换全局实现（接入真实托管服务时在启动处调用）。
func SetUploader(u Uploader) {
	mu.Lock()
	defer mu.Unlock()
	if u != nil {
		global = u
	}
}

func Get() Uploader {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// ShouldUpload 已经是托管 URL 的串不再重复上传。
func ShouldUpload(asset string) bool {
	if asset == "" {
		return false
	}
	return !strings.HasPrefix(asset, "http://") && !strings.HasPrefix(asset, "https://")
}
