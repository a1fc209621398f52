// Package cache owns the on-disk layout used by netfetch:
//
//	<root>/<sha256(locator)>/<basename(locator)>
//
// Key derives the directory name; the Store computes paths, answers the
// existence-only hit test and persists downloaded bodies. Nothing in this
// package ever deletes an entry or the root; the root is created lazily on the
// first write and lives until something outside the process clears it.
package cache
