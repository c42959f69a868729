package common

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr    string
	MetricsAddr string
	// AI provider selection: "mock" (default) or "openai"
	AIProvider string
	// KB backend selection: "memory" (default) or "es"
	KBBackend string
	// Elasticsearch settings for KB when KBBackend=="es"
	ESAddrs    []string
	ESIndex    string
	ESUsername string
	ESPassword string
	// Per-turn deadline for model completions
	ModelTimeout time.Duration
	// Simulated latency for mock ticket submission
	SubmitLatency time.Duration
}

func LoadConfig() *Config {
	esAddrs := getenv("ES_ADDRS", "")
	var addrs []string
	if esAddrs != "" {
		for _, p := range strings.Split(esAddrs, ",") {
			v := strings.TrimSpace(p)
			if v != "" {
				addrs = append(addrs, v)
			}
		}
	}
	return &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		MetricsAddr:   getenv("METRICS_ADDR", ""),
		AIProvider:    getenv("AI_PROVIDER", "mock"),
		KBBackend:     getenv("KB_BACKEND", "memory"),
		ESAddrs:       addrs,
		ESIndex:       getenv("ES_INDEX", "kb_docs"),
		ESUsername:    getenv("ES_USERNAME", ""),
		ESPassword:    getenv("ES_PASSWORD", ""),
		ModelTimeout:  getenvDuration("MODEL_TIMEOUT", 30*time.Second),
		SubmitLatency: getenvDuration("SUBMIT_LATENCY", 600*time.Millisecond),
	}
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// EsAddressesOrDefault returns configured ES addresses or a local default.
func (c *Config) EsAddressesOrDefault() []string {
	if len(c.ESAddrs) > 0 {
		return c.ESAddrs
	}
	// default to local single node
	return []string{"http://localhost:9200"}
}
