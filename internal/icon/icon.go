// Package icon draws the application icon.
package icon

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Mavwarf/teamsdesk/internal/paths"
)

// Background is the tile colour.
var Background = color.RGBA{R: 0x50, G: 0x59, B: 0xc9, A: 0xff}

// glyphTile is the side of the square the letter is rendered into before
// scaling.
const glyphTile = 16

// Draw renders the icon as a size×size image: a rounded tile with a white
// letter T.
func Draw(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	radius := float64(size) / 5
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if inRoundedRect(float64(x)+0.5, float64(y)+0.5, float64(size), radius) {
				img.SetRGBA(x, y, Background)
			}
		}
	}

	glyph := image.NewRGBA(image.Rect(0, 0, glyphTile, glyphTile))
	d := &font.Drawer{
		Dst:  glyph,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(4), Y: fixed.I(13)},
	}
	d.DrawString("T")

	margin := size / 8
	dst := image.Rect(margin, margin, size-margin, size-margin)
	xdraw.NearestNeighbor.Scale(img, dst, glyph, glyph.Bounds(), xdraw.Over, nil)
	return img
}

func inRoundedRect(x, y, size, r float64) bool {
	cx, cy := x, y
	switch {
	case x < r:
		cx = r
	case x > size-r:
		cx = size - r
	}
	switch {
	case y < r:
		cy = r
	case y > size-r:
		cy = size - r
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r
}

// PNG encodes Draw(size).
func PNG(size int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Draw(size)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EnsureFile writes the icon to dir unless it is already there and
// returns its path. Notification facilities need the icon on disk.
func EnsureFile(dir string) (string, error) {
	path := filepath.Join(dir, paths.IconFileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	data, err := PNG(256)
	if err != nil {
		return "", err
	}
	if err := paths.AtomicWrite(path, data); err != nil {
		return "", err
	}
	return path, nil
}
