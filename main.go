// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"flag"
	"fmt"

	"go.astrophena.name/base/cli"
	"go.astrophena.name/iconize/internal/icon"
)

func main() { cli.Main(new(app)) }

type app struct {
	dir    string
	trim   bool
	margin float64
	watch  bool
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.dir, "dir", "", "Write icons to `dir` instead of the directory containing the executable.")
	fs.BoolVar(&a.trim, "trim", false, "Crop the source to its alpha bounding box before squaring.")
	fs.Float64Var(&a.margin, "margin", 0, "Keep this `ratio` of each canvas side as transparent margin.")
	fs.BoolVar(&a.watch, "watch", false, "Keep running and regenerate icons when the source changes.")
}

func (a *app) Run(ctx context.Context) error {
	if len(flag.Args()) != 1 {
		return fmt.Errorf("%w: want source PNG path", cli.ErrInvalidArgs)
	}

	c := &icon.Config{
		Src:    flag.Args()[0],
		Dst:    a.dir,
		Trim:   a.trim,
		Margin: a.margin,
	}
	if a.watch {
		return icon.Watch(ctx, c)
	}
	return icon.Generate(ctx, c)
}
