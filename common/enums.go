// Enums shared by the assembly engine and configuration. Kept apart so the
// engine does not depend on configuration package.
package common

//go:generate go tool go-enum --marshal --nocase --mustparse

// Policy for a source whose insert marker is nowhere
// to be found.
// ENUM(ignore, warn, fail)
type MissingMarkerPolicy int
