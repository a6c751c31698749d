package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text, color string
}{
	{"                        _            ", "#34d399"},
	{" __      ____ _ _ __ __| | ___ _ __  ", "#2dd4bf"},
	{" \\ \\ /\\ / / _` | '__/ _` |/ _ \\ '_ \\ ", "#22d3ee"},
	{"  \\ V  V / (_| | | | (_| |  __/ | | |", "#38bdf8"},
	{"   \\_/\\_/ \\__,_|_|  \\__,_|\\___|_| |_|", "#60a5fa"},
}

// PrintBanner writes the startup banner and the running version to w.
// Colors degrade to the profile of the output.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)

	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(out.Color(line.color)))
	}
	fmt.Fprintln(w, out.String("   unattended session controller "+version).Faint())
	fmt.Fprintln(w)
}
