// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Iconize generates the fixed set of square web app icons from a single
source PNG.

# Usage

	$ iconize [flags] <source.png>

Iconize places the source centered on a transparent square canvas and
scales it to produce three icons:

	apple-touch-icon.png  180×180
	icon-192.png          192×192
	icon-512.png          512×512

Icons are written into the directory containing the executable, unless
overridden with the -dir flag. Because every icon is derived from the
same square intermediate, the source content is never stretched, no
matter its aspect ratio.

With -trim, the source is first cropped to the bounding box of its
non-transparent pixels. With -margin, the square canvas grows so the
content keeps a uniform transparent margin around it. With -watch,
iconize keeps running and regenerates the icons whenever the source
file changes.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/base/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
