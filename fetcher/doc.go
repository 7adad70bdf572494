// Package fetcher implements the retrieval side of the cache: turning a key
// (an http(s) URL, a local path or an s3:// URL) into a parsed JSON value.
package fetcher
