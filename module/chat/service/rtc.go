package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	config "Upside/global/config"
	errs "Upside/tools/errs"
)

// RTCTokenProvider 音视频通话 token 签发边界。
// 线上对接真实 RTC 服务商；默认实现用 HMAC 自签，够联调用。
type RTCTokenProvider interface {
	Token(ctx context.Context, uid, channelName string) (string, error)
}

type hmacTokenProvider struct{}

const rtcTokenTTL = 24 * time.Hour

// Token 形如 base64(appId:uid:channel:expire:sig)，sig = HMAC-SHA256(cert, 前四段)
func (hmacTokenProvider) Token(_ context.Context, uid, channelName string) (string, error) {
	cfg := config.Global
	if cfg.RTCAppID == "" || cfg.RTCAppCert == "" {
		return "", errs.ErrRTCUnavailable.Wrap()
	}
	if uid == "" || channelName == "" {
		return "", errs.ErrArgs.WithDetail("uid and channelName required").Wrap()
	}

	expire := time.Now().Add(rtcTokenTTL).Unix()
	payload := fmt.Sprintf("%s:%s:%s:%d", cfg.RTCAppID, uid, channelName, expire)
	mac := hmac.New(sha256.New, []byte(cfg.RTCAppCert))
	mac.Write([]byte(payload))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return base64.RawURLEncoding.EncodeToString([]byte(payload + ":" + sig)), nil
}

var (
	rtcMu       sync.RWMutex
	rtcProvider RTCTokenProvider = hmacTokenProvider{}
)

// SetRTCProvider 替换签发实现（接入真实服务商时启动处调用）。
func SetRTCProvider(p RTCTokenProvider) {
	rtcMu.Lock()
	defer rtcMu.Unlock()
	if p != nil {
		rtcProvider = p
	}
}

func GetRTCToken(ctx context.Context, uid, channelName string) (string, error) {
	rtcMu.RLock()
	p := rtcProvider
	rtcMu.RUnlock()
	return p.Token(ctx, uid, channelName)
}
