// Package config provides configuration structures and utilities for
// webgrep. It defines the crawl, fetch and report options, their
// defaults, and the optional .webgrep YAML file that overrides them.
package config
