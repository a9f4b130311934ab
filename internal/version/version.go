// Package version holds the compiler version. The variables can be
// overridden at build time via -ldflags.
package version

import (
	"strings"

	"github.com/fatih/color"
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)

	// Number is the plain semantic version; manifests constrain it.
	Number = "0.4.0"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Banner renders Number with coloured components, followed by the commit
// and build date when they are set. Colour follows color.NoColor.
func Banner() string {
	core, pre, _ := strings.Cut(Number, "-")
	parts := strings.SplitN(core, ".", 3)
	colors := []*color.Color{majorColor, minorColor, patchColor}
	for i := range parts {
		parts[i] = colors[i].Sprint(parts[i])
	}
	out := "qllc " + strings.Join(parts, ".")
	if pre != "" {
		out += "-" + pre
	}
	if GitCommit != "" {
		out += " (" + GitCommit + ")"
	}
	if BuildDate != "" {
		out += " built " + BuildDate
	}
	return out
}
