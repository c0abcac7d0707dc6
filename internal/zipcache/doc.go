// Package zipcache maintains the content-addressed cache of extracted scene
// archives. Entries are validated against a SHA-256 of the source bytes, so
// a replaced archive invalidates its cached extraction transparently. The
// package also provides the VirtualDirectory abstraction presenting archive
// contents and plain directories uniformly.
package zipcache
