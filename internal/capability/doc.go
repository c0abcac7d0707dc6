// Package capability models what the current haptic hardware supports as an
// immutable descriptor reduced to an ordinal support tier (0-4). The tier
// drives which signal variant a scene document resolves to.
package capability
