// Package locator classifies the strings handed to netfetch into remote URLs
// and plain filesystem paths. Classification happens once, producing a tagged
// Locator value, so callers branch on Kind instead of re-parsing the scheme.
package locator
