package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{` __  __        _ ____        _   `, "#34d399"},
	{`|  \/  | __ _ (_) __ )  ___ | |_ `, "#2dd4bf"},
	{`| |\/| |/ _' || |  _ \ / _ \| __|`, "#22d3ee"},
	{`| |  | | (_| || | |_) | (_) | |_ `, "#38bdf8"},
	{`|_|  |_|\__,_|/ |____/ \___/ \__|`, "#60a5fa"},
	{`            |__/                  `, "#818cf8"},
}

// PrintBanner writes the MajBot ASCII banner to w, colored for the detected terminal profile.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	}
	fmt.Fprintln(w)
}
