package fetch

import "errors"

var (
	// ErrNotConnected is returned by IssueRequest before a successful
	// Connect.
	ErrNotConnected = errors.New("fetch: not connected")

	// ErrUnsupportedScheme is returned by Connect for URLs that are not
	// http or https.
	ErrUnsupportedScheme = errors.New("fetch: unsupported scheme")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address
	// is not in host:port form.
	ErrInvalidProxyAddress = errors.New("fetch: invalid proxy address")
)
