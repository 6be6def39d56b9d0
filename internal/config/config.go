package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// namespacePattern matches lowercase alphanumeric names with hyphens, 1-63 chars.
var namespacePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Config is the console's runtime configuration.
type Config struct {
	ListenAddr string `yaml:"listenAddr"`
	// BackendURL is the single base URL of the service exposing the mock
	// and live endpoint families. Empty means this process serves them.
	BackendURL          string        `yaml:"backendURL"`
	DefaultNamespace    string        `yaml:"defaultNamespace"`
	PodNamespace        string        `yaml:"podNamespace"`
	MockTransitionDelay time.Duration `yaml:"mockTransitionDelay"`
	StartInMockMode     bool          `yaml:"startInMockMode"`
	// RequestTimeout bounds outgoing backend calls. Zero leaves them unbounded.
	RequestTimeout     time.Duration `yaml:"requestTimeout"`
	ServeMockBackend   bool          `yaml:"serveMockBackend"`
	LogLevel           string        `yaml:"logLevel"`
	CORSAllowedOrigins []string      `yaml:"corsAllowedOrigins"`
	KServe             KServeConfig  `yaml:"kserve"`
	// PrometheusURL enables per-deployment usage queries. Empty disables them.
	PrometheusURL string `yaml:"prometheusURL"`
}

// KServeConfig enables the live serving gateway backed by a Kubernetes cluster.
type KServeConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Kubeconfig string   `yaml:"kubeconfig"`
	Context    string   `yaml:"context"`
	Namespaces []string `yaml:"namespaces"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		ListenAddr:          ":8080",
		DefaultNamespace:    "default",
		PodNamespace:        "bankchurn-kserve-2",
		MockTransitionDelay: 3 * time.Second,
		ServeMockBackend:    true,
		LogLevel:            "info",
		KServe: KServeConfig{
			Namespaces: []string{"bankchurn-kserve-2", "default"},
		},
	}
}

// Load reads a YAML configuration file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listenAddr must not be empty")
	}
	if c.BackendURL != "" {
		u, err := url.Parse(c.BackendURL)
		if err != nil {
			return fmt.Errorf("backendURL %q is invalid: %w", c.BackendURL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("backendURL %q must use http or https", c.BackendURL)
		}
	}
	for _, ns := range []string{c.DefaultNamespace, c.PodNamespace} {
		if !namespacePattern.MatchString(ns) {
			return fmt.Errorf("namespace %q is invalid: must be lowercase alphanumeric with hyphens, 1-63 chars", ns)
		}
	}
	if c.MockTransitionDelay <= 0 {
		return fmt.Errorf("mockTransitionDelay must be positive, got %s", c.MockTransitionDelay)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("requestTimeout must not be negative, got %s", c.RequestTimeout)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logLevel %q is invalid: must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.BackendURL == "" && !c.ServeMockBackend && !c.KServe.Enabled {
		return fmt.Errorf("no backend: set backendURL, serveMockBackend or kserve.enabled")
	}
	if c.PrometheusURL != "" {
		u, err := url.Parse(c.PrometheusURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("prometheusURL %q must be an http or https URL", c.PrometheusURL)
		}
	}
	for _, ns := range c.KServe.Namespaces {
		if !namespacePattern.MatchString(ns) {
			return fmt.Errorf("kserve namespace %q is invalid", ns)
		}
	}
	return nil
}

// ApplyEnv overlays environment settings that take precedence over the file.
func (c *Config) ApplyEnv() {
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.CORSAllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSAllowedOrigins = append(c.CORSAllowedOrigins, o)
			}
		}
	}
	if u := os.Getenv("PROMETHEUS_URL"); u != "" {
		c.PrometheusURL = u
	}
	if c.KServe.Kubeconfig == "" {
		c.KServe.Kubeconfig = os.Getenv("KUBECONFIG")
	}
}
