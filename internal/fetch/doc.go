// Package fetch provides the HTTP connection used by crawl workers.
//
// A Client binds to one host and port via Connect and then issues GET
// requests for paths on that host. Each worker holds its own Client, so
// no request-level locking is needed. Response bodies are decoded to
// UTF-8 based on the Content-Type charset and truncated at a
// configurable size.
package fetch
