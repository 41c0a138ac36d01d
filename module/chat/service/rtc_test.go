package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	config "Upside/global/config"
	errs "Upside/tools/errs"
)

func TestRTCTokenRequiresConfig(t *testing.T) {
	old := config.Global
	defer func() { config.Global = old }()
	config.Global.RTCAppID = ""
	config.Global.RTCAppCert = ""

	_, err := GetRTCToken(context.Background(), "u1", "ch1")
	if err == nil || !errs.ErrRTCUnavailable.Is(err) {
		t.Fatalf("expected rtc unavailable, got %v", err)
	}
}

func TestRTCTokenRequiresArgs(t *testing.T) {
	old := config.Global
	defer func() { config.Global = old }()
	config.Global.RTCAppID = "app"
	config.Global.RTCAppCert = "cert"

	if _, err := GetRTCToken(context.Background(), "", "ch1"); err == nil {
		t.Fatalf("empty uid must be rejected")
	}
	if _, err := GetRTCToken(context.Background(), "u1", ""); err == nil {
		t.Fatalf("empty channel must be rejected")
	}
}

func TestRTCTokenShape(t *testing.T) {
	old := config.Global
	defer func() { config.Global = old }()
	config.Global.RTCAppID = "app-1"
	config.Global.RTCAppCert = "cert-1"

	token, err := GetRTCToken(context.Background(), "u1", "ch1")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not base64: %v", err)
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) != 5 {
		t.Fatalf("token has %d parts, want 5: %s", len(parts), raw)
	}
	if parts[0] != "app-1" || parts[1] != "u1" || parts[2] != "ch1" {
		t.Fatalf("token fields = %v", parts[:3])
	}
	if parts[4] == "" {
		t.Fatalf("missing signature")
	}
}
