package config

import "time"

// File represents the structure of the .webgrep configuration file.
// Every field is optional; set fields override the built-in defaults
// but never values given explicitly on the command line.
type File struct {
	// Grep is the default text search expression.
	Grep string `yaml:"grep,omitempty"`

	// MaxLinks caps how many child URLs one crawl may spawn in total.
	MaxLinks uint32 `yaml:"maxLinks,omitempty"`

	// Threads is the worker pool size per crawl.
	Threads uint32 `yaml:"threads,omitempty"`

	// MaxNodes is the per-tree node allocation ceiling.
	MaxNodes uint32 `yaml:"maxNodes,omitempty"`

	// Timeout is the per-request timeout, in Go duration syntax.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `yaml:"userAgent,omitempty"`

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`

	// Proxy is a SOCKS5 proxy address in "host:port" format.
	Proxy string `yaml:"proxy,omitempty"`

	// Batch is the number of seeds crawled concurrently.
	Batch int `yaml:"batch,omitempty"`
}

// ApplyTo copies every set field of the file onto c. Zero-valued fields
// are skipped so the file can override a subset of the defaults. CLI
// flags are applied after this, so they win over the file.
func (f *File) ApplyTo(c *Config) {
	if f.Grep != "" {
		c.GrepExpr = f.Grep
	}
	if f.MaxLinks != 0 {
		c.MaxLinks = f.MaxLinks
	}
	if f.Threads != 0 {
		c.Threads = f.Threads
	}
	if f.MaxNodes != 0 {
		c.MaxNodes = f.MaxNodes
	}
	if f.Timeout != 0 {
		c.Timeout = f.Timeout
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.MaxBodySize != 0 {
		c.MaxBodySize = f.MaxBodySize
	}
	if f.Proxy != "" {
		c.ProxyAddress = f.Proxy
	}
	if f.Batch != 0 {
		c.BatchSize = f.Batch
	}
}
