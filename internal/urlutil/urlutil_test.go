package urlutil

import (
	"strings"
	"testing"
)

// TestExtractHostPort tests host:port extraction from URLs.
func TestExtractHostPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "https with port", url: "https://site.com:443/a/b", want: "site.com:443"},
		{name: "no scheme", url: "site.com/a", want: "site.com"},
		{name: "http without path", url: "http://example.org", want: "example.org"},
		{name: "trailing slash only", url: "http://example.org/", want: "example.org"},
		{name: "empty", url: "", want: ""},
		{name: "bare host", url: "localhost:8080", want: "localhost:8080"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractHostPort(tt.url); got != tt.want {
				t.Errorf("ExtractHostPort(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

// TestFindURLAddressBegin tests scheme separator detection.
func TestFindURLAddressBegin(t *testing.T) {
	t.Parallel()

	t.Run("local path returns zero", func(t *testing.T) {
		t.Parallel()
		if got := FindURLAddressBegin("/local", len("/local")); got != 0 {
			t.Errorf("got %d, want 0", got)
		}
	})

	t.Run("http scheme", func(t *testing.T) {
		t.Parallel()
		s := "http://x/path"
		if got := FindURLAddressBegin(s, len(s)); got != 7 {
			t.Errorf("got %d, want 7", got)
		}
	})

	t.Run("https scheme", func(t *testing.T) {
		t.Parallel()
		s := "https://site.com/"
		if got := FindURLAddressBegin(s, len(s)); got != 8 {
			t.Errorf("got %d, want 8", got)
		}
	})

	t.Run("no scheme returns nmax", func(t *testing.T) {
		t.Parallel()
		n := len("no-scheme")
		if got := FindURLAddressBegin("no-scheme", n); got != n {
			t.Errorf("got %d, want %d", got, n)
		}
	})

	t.Run("empty string returns nmax", func(t *testing.T) {
		t.Parallel()
		if got := FindURLAddressBegin("", 42); got != 42 {
			t.Errorf("got %d, want 42", got)
		}
	})

	t.Run("scan is bounded by nmax", func(t *testing.T) {
		t.Parallel()
		// Separator lies beyond the allowed bound, so it is not found.
		s := "aaaa://x"
		if got := FindURLAddressBegin(s, 3); got != 3 {
			t.Errorf("got %d, want 3", got)
		}
	})
}

// TestFindURLPathBegin tests path start detection.
func TestFindURLPathBegin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    string
		want int
	}{
		{name: "path after scheme and host", s: "http://x/path", want: 8},
		{name: "leading slash", s: "/local", want: 0},
		{name: "no slash at all", s: "site.com", want: len("site.com")},
		{name: "host with port", s: "https://site.com:443/a", want: 20},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FindURLPathBegin(tt.s, len(tt.s)); got != tt.want {
				t.Errorf("FindURLPathBegin(%q) = %d, want %d", tt.s, got, tt.want)
			}
		})
	}
}

// TestFindClosingQuote tests attribute value termination.
func TestFindClosingQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    string
		want int
	}{
		{name: "double quote", s: `http://x/a" rel=`, want: 10},
		{name: "single quote", s: "http://x/a' ", want: 10},
		{name: "angle bracket", s: "path>rest", want: 4},
		{name: "space", s: "path more", want: 4},
		{name: "newline", s: "path\nmore", want: 4},
		{name: "no terminator", s: "clean", want: 5},
		{name: "empty", s: "", want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FindClosingQuote(tt.s); got != tt.want {
				t.Errorf("FindClosingQuote(%q) = %d, want %d", tt.s, got, tt.want)
			}
		})
	}
}

// TestMakeFullPath tests relative link resolution.
func TestMakeFullPath(t *testing.T) {
	t.Parallel()

	const (
		hostPort = "s.example"
		baseURL  = "https://s.example"
		scheme   = "https"
	)

	tests := []struct {
		name string
		link string
		want string
	}{
		{name: "absolute path", link: "/a/b", want: "https://s.example/a/b"},
		{name: "sibling path", link: "sub/page.html", want: "https://s.example/sub/page.html"},
		{name: "already absolute", link: "http://other.example/x", want: "http://other.example/x"},
		{name: "root slash", link: "/", want: "https://s.example/"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := MakeFullPath(tt.link, hostPort, baseURL, scheme)
			if got != tt.want {
				t.Errorf("MakeFullPath(%q) = %q, want %q", tt.link, got, tt.want)
			}
		})
	}

	t.Run("idempotent on absolute URLs", func(t *testing.T) {
		t.Parallel()
		inputs := []string{
			"http://site.com/path",
			"https://site.com:443/a/b",
			"http://h/",
		}
		for _, in := range inputs {
			if got := MakeFullPath(in, hostPort, baseURL, scheme); got != in {
				t.Errorf("MakeFullPath(%q) = %q, want unchanged", in, got)
			}
			// A second application must also be a fixed point.
			if got := MakeFullPath(MakeFullPath(in, hostPort, baseURL, scheme), hostPort, baseURL, scheme); got != in {
				t.Errorf("double MakeFullPath(%q) = %q, want unchanged", in, got)
			}
		}
	})

	t.Run("resolved links round-trip", func(t *testing.T) {
		t.Parallel()
		resolved := MakeFullPath("/a/b", hostPort, baseURL, scheme)
		if !strings.HasPrefix(resolved, "https://") {
			t.Fatalf("resolved link %q lacks scheme", resolved)
		}
		if again := MakeFullPath(resolved, hostPort, baseURL, scheme); again != resolved {
			t.Errorf("re-resolving %q changed it to %q", resolved, again)
		}
	})
}
