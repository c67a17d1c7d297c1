// Package thorax holds module-wide metadata shared by the CLI and any
// embedding program.
package thorax

// Version is the semantic version of the thorax module.
const Version = "0.3.0"
