package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/loykin/docmigrate/internal/common"
	"github.com/loykin/docmigrate/internal/httpc"
)

const (
	DefaultWaitTimeout  = 60 * time.Second
	DefaultWaitInterval = 2 * time.Second
)

// parseTLSVersion converts a TLS version string to the corresponding
// crypto/tls constant. Returns 0 when the string is not recognized.
func parseTLSVersion(version string) uint16 {
	switch strings.TrimSpace(strings.ToLower(version)) {
	case "1.0", "10", "tls1.0", "tls10":
		return tls.VersionTLS10
	case "1.1", "11", "tls1.1", "tls11":
		return tls.VersionTLS11
	case "1.2", "12", "tls1.2", "tls12":
		return tls.VersionTLS12
	case "1.3", "13", "tls1.3", "tls13":
		return tls.VersionTLS13
	default:
		return 0
	}
}

func setupTLSConfig(clientCfg ClientConfig) *tls.Config {
	cfg := &tls.Config{
		MinVersion: parseTLSVersion(clientCfg.MinTLSVersion),
		MaxVersion: parseTLSVersion(clientCfg.MaxTLSVersion),
	} // #nosec G402 -- versions come from explicit operator config
	if clientCfg.Insecure {
		// #nosec G402 -- self-signed probe endpoints, opt-in only
		cfg.InsecureSkipVerify = true
	}
	return cfg
}

// doWait polls an HTTP endpoint until it returns the expected status or the
// timeout elapses. A typical use is waiting for the application (or a DB
// HTTP health endpoint) to come up before migrating. No URL configured
// means no probe.
func doWait(ctx context.Context, wc WaitConfig, clientCfg ClientConfig) error {
	url := strings.TrimSpace(wc.URL)
	if url == "" {
		return nil
	}

	method := strings.ToUpper(strings.TrimSpace(wc.Method))
	if method == "" {
		method = "GET"
	}
	expected := wc.Status
	if expected == 0 {
		expected = 200
	}
	timeout := wc.Timeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	interval := wc.Interval
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	logger := common.GetLogger().WithComponent("wait")
	logger.Info("waiting for endpoint", "url", url, "status", expected, "timeout", timeout)

	hcfg := &httpc.Httpc{TlsConfig: setupTLSConfig(clientCfg), Timeout: interval}
	deadline := time.Now().Add(timeout)
	lastStatus := 0
	for {
		status, err := probeOnce(ctx, hcfg, method, url)
		if err == nil && status == expected {
			logger.Info("endpoint ready", "url", url)
			return nil
		}
		lastStatus = status
		if time.Now().After(deadline) {
			return fmt.Errorf("wait: timeout waiting for %s to return %d (last=%d)", url, expected, lastStatus)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func probeOnce(ctx context.Context, hcfg *httpc.Httpc, method, url string) (int, error) {
	req := hcfg.New().R().SetContext(ctx)
	switch method {
	case "HEAD":
		resp, err := req.Head(url)
		if resp != nil {
			return resp.StatusCode(), err
		}
		return 0, err
	default:
		resp, err := req.Get(url)
		if resp != nil {
			return resp.StatusCode(), err
		}
		return 0, err
	}
}
