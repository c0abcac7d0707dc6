// Package assets resolves scene identifiers to local files, either by
// searching configured scene directories or by staging objects from an
// S3-compatible store.
package assets
