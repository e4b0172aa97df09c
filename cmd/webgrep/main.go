// Package main provides the entry point for the webgrep CLI.
//
// Webgrep crawls the web from one or more seed URLs and greps every
// fetched page for a text expression, following links recursively.
//
// Usage:
//
//	webgrep crawl --grep <expression> <url>
//	webgrep crawl --grep <expression> <url1> <url2> <url3>
//
// See --help for all available options.
package main

// main is the entry point for webgrep.
func main() {
	Execute()
}
