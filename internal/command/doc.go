// Package command implements the sitedata CLI: fetching, preloading and
// snapshotting site documents through a fetch cache.
package command
