package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct{ text, color string }{
	{"   ___                  _    ", "#818cf8"},
	{"  / __|___  __ _ __| |_  ", "#a78bfa"},
	{" | (__/ _ \\/ _` / _| ' \\ ", "#c084fc"},
	{"  \\___\\___/\\__,_\\__|_||_|", "#f472b6"},
}

// PrintBanner writes the coach banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(out)
	for _, line := range bannerLines {
		fmt.Fprintln(out, out.String(line.text).Foreground(out.Color(line.color)))
	}
	fmt.Fprintln(out)
}
