package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseTLSVersion(t *testing.T) {
	cases := []struct {
		in   string
		want uint16
	}{
		{"1.0", tls.VersionTLS10},
		{"tls1.1", tls.VersionTLS11},
		{"1.2", tls.VersionTLS12},
		{"TLS1.3", tls.VersionTLS13},
		{" 13 ", tls.VersionTLS13},
		{"", 0},
		{"ssl3", 0},
	}
	for _, tc := range cases {
		if got := parseTLSVersion(tc.in); got != tc.want {
			t.Fatalf("parseTLSVersion(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSetupTLSConfig(t *testing.T) {
	cfg := setupTLSConfig(ClientConfig{MinTLSVersion: "1.2", MaxTLSVersion: "1.3", Insecure: true})
	if cfg.MinVersion != tls.VersionTLS12 || cfg.MaxVersion != tls.VersionTLS13 {
		t.Fatalf("versions: %d..%d", cfg.MinVersion, cfg.MaxVersion)
	}
	if !cfg.InsecureSkipVerify {
		t.Fatalf("insecure flag not applied")
	}
}

func TestDoWaitNoURL(t *testing.T) {
	if err := doWait(context.Background(), WaitConfig{}, ClientConfig{}); err != nil {
		t.Fatalf("no url should be a no-op: %v", err)
	}
}

func TestDoWaitImmediateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wc := WaitConfig{URL: srv.URL, Status: 204, Timeout: 5 * time.Second, Interval: 100 * time.Millisecond}
	if err := doWait(context.Background(), wc, ClientConfig{}); err != nil {
		t.Fatalf("doWait: %v", err)
	}
}

func TestDoWaitRetriesUntilReady(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wc := WaitConfig{URL: srv.URL, Timeout: 10 * time.Second, Interval: 50 * time.Millisecond}
	if err := doWait(context.Background(), wc, ClientConfig{}); err != nil {
		t.Fatalf("doWait: %v", err)
	}
	if atomic.LoadInt32(&calls) < 3 {
		t.Fatalf("expected at least 3 probes, got %d", calls)
	}
}

func TestDoWaitTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	wc := WaitConfig{URL: srv.URL, Timeout: 300 * time.Millisecond, Interval: 50 * time.Millisecond}
	err := doWait(context.Background(), wc, ClientConfig{})
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestDoWaitHeadMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wc := WaitConfig{URL: srv.URL, Method: "head", Timeout: 5 * time.Second, Interval: 50 * time.Millisecond}
	if err := doWait(context.Background(), wc, ClientConfig{}); err != nil {
		t.Fatalf("doWait: %v", err)
	}
}

func TestDoWaitContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	wc := WaitConfig{URL: srv.URL, Timeout: 30 * time.Second, Interval: 50 * time.Millisecond}
	err := doWait(ctx, wc, ClientConfig{})
	if err == nil || !strings.Contains(err.Error(), "canceled") {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
