package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"                                    _       _   ",
	" __      ____ _ _   _ _ __   ___ (_)_ __ | |_ ",
	" \\ \\ /\\ / / _` | | | | '_ \\ / _ \\| | '_ \\| __|",
	"  \\ V  V / (_| | |_| | |_) | (_) | | | | | |_ ",
	"   \\_/\\_/ \\__,_|\\__, | .__/ \\___/|_|_| |_|\\__|",
	"                |___/|_|                      ",
}

// Teal to blue, one shade per line.
var bannerColors = []string{"#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa", "#818cf8", "#a78bfa"}

// PrintBanner writes the waypoint banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
