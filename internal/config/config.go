package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. The crawl-side numbers mirror the
// built-in limits of the crawler and fetch packages so that a zero
// config behaves exactly like the library defaults.
const (
	// DefaultTimeout is the per-request timeout. 30 seconds covers slow
	// servers without letting one dead host stall a worker for long.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxLinks caps how many child URLs a single crawl may spawn
	// across all levels.
	DefaultMaxLinks = 4096

	// DefaultThreads is the worker pool size for one crawl.
	DefaultThreads = 4

	// DefaultMaxNodes is the per-tree node allocation ceiling.
	DefaultMaxNodes = 8192

	// DefaultBatchSize is the number of seeds crawled concurrently when
	// several targets are given.
	DefaultBatchSize = 4

	// DefaultUserAgent matches the fetch client's built-in identity, a
	// mainstream browser string that ordinary servers will not treat
	// specially.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB is sufficient for HTML while preventing memory exhaustion from
	// unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// AppName is the application name used for XDG directory paths.
	AppName = "webgrep"
)

// Config holds all options for a webgrep run. It is populated from CLI
// flags and an optional config file, then passed through the application
// by value reference rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// Targets is the list of seed URLs to crawl. At least one is
	// required; several are crawled as a batch.
	Targets []string

	// GrepExpr is the text search expression applied to every fetched
	// page. RE2 syntax.
	GrepExpr string

	// MaxLinks caps how many child URLs one crawl may spawn in total.
	MaxLinks uint32

	// Threads is the worker pool size per crawl.
	Threads uint32

	// MaxNodes is the per-tree node allocation ceiling.
	MaxNodes uint32

	// Timeout is the per-request timeout for each HTTP fetch. It bounds
	// individual requests, not the whole crawl.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Zero means the default.
	MaxBodySize int64

	// ProxyAddress routes all requests through a SOCKS5 proxy at
	// "host:port" when set. Empty means direct connections.
	ProxyAddress string

	// BatchSize is the number of seeds crawled concurrently when more
	// than one target is given.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// Force refetches the seed page even when a finished tree for the
	// same URL is already in memory.
	Force bool

	// ConfigFilePath is the path to the configuration file. If empty,
	// the tool searches for .webgrep in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// JSONReport switches the report to JSON. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport switches the report to GitHub Flavored Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report. When empty the
	// report goes to stdout.
	ReportFile string
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, worker
// count). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxLinks:    DefaultMaxLinks,
		Threads:     DefaultThreads,
		MaxNodes:    DefaultMaxNodes,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		BatchSize:   DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for webgrep. Report file
// names are not resolved against it.
// On Linux: ~/.local/share/webgrep
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webgrep.
// On Linux: ~/.config/webgrep
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid. It returns a specific
// sentinel error describing the first problem found; fixing one error
// often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.GrepExpr == "" {
		return ErrNoExpression
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}
