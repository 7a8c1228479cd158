package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config is the daemon/client's environment-derived configuration,
// immutable once returned by Load.
type Config struct {
	// UpstreamHost is the bare host parsed out of NRM_UPSTREAM_URI
	// (e.g. "127.0.0.1" from "tcp://127.0.0.1").
	UpstreamHost string
	RPCPort      int
	PubPort      int
	RateLimit    time.Duration
	Transmit     bool
	Timeout      time.Duration
}

const (
	envUpstreamURI = "NRM_UPSTREAM_URI"
	envRPCPort     = "NRM_UPSTREAM_RPC_PORT"
	envPubPort     = "NRM_UPSTREAM_PUB_PORT"
	envRateLimit   = "NRM_RATELIMIT"
	envTransmit    = "NRM_TRANSMIT"
	envTimeout     = "NRM_TIMEOUT"
)

const (
	defaultUpstreamURI = "tcp://127.0.0.1"
	defaultRPCPort     = 3456
	defaultPubPort     = 2345
	defaultRateLimitNs = 10_000_000
	defaultTimeoutMs   = 1000
)

// Load reads Config from the process environment, falling back to
// spec-mandated defaults for anything unset.
func Load() (Config, error) {
	host, err := parseUpstreamHost(getenv(envUpstreamURI, defaultUpstreamURI))
	if err != nil {
		return Config{}, err
	}

	rpcPort, err := getenvInt(envRPCPort, defaultRPCPort)
	if err != nil {
		return Config{}, err
	}
	pubPort, err := getenvInt(envPubPort, defaultPubPort)
	if err != nil {
		return Config{}, err
	}
	rateLimitNs, err := getenvInt(envRateLimit, defaultRateLimitNs)
	if err != nil {
		return Config{}, err
	}
	timeoutMs, err := getenvInt(envTimeout, defaultTimeoutMs)
	if err != nil {
		return Config{}, err
	}

	transmit := true
	if v := os.Getenv(envTransmit); v == "0" {
		transmit = false
	}

	return Config{
		UpstreamHost: host,
		RPCPort:      rpcPort,
		PubPort:      pubPort,
		RateLimit:    time.Duration(rateLimitNs) * time.Nanosecond,
		Transmit:     transmit,
		Timeout:      time.Duration(timeoutMs) * time.Millisecond,
	}, nil
}

// RPCAddr returns the host:port string for the RPC endpoint.
func (c Config) RPCAddr() string { return fmt.Sprintf("%s:%d", c.UpstreamHost, c.RPCPort) }

// PubAddr returns the host:port string for the pub/sub endpoint.
func (c Config) PubAddr() string { return fmt.Sprintf("%s:%d", c.UpstreamHost, c.PubPort) }

func parseUpstreamHost(uri string) (string, error) {
	return ParseUpstreamHost(uri)
}

// ParseUpstreamHost extracts the bare host from an upstream URI such
// as "tcp://127.0.0.1". Exported so callers overlaying a --listen-uri
// flag onto a loaded Config can reuse the same parsing rule.
func ParseUpstreamHost(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("config: parse %s=%q: %w", envUpstreamURI, uri, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("config: %s=%q has no host", envUpstreamURI, uri)
	}
	return u.Hostname(), nil
}

func getenv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getenvInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s=%q: %w", name, v, err)
	}
	return n, nil
}
