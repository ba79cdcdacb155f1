// Package version provides build and version information.
package version

// Version is the current application version.
// Update this at logical milestones.
const Version = "0.4.0"

// Milestones:
// 0.1.0 - Anime filename classifier with SubsPlease and NeoLX conventions
// 0.2.0 - Watchers for anime, movie and animated movie drop directories
// 0.3.0 - Health check and metrics endpoint
// 0.4.0 - Convention registry, untagged releases, periodic rescans
