package game

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/golang/freetype"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
)

const renderScale = 24

// RenderImage writes the ownership map as a PNG heatmap. Black-owned points
// render dark, White-owned bright. When fontPath names a TTF file the column
// letters are drawn along the bottom edge; with an empty path the image is
// written without labels.
func (o *OwnerMap) RenderImage(path, fontPath string) error {
	src := image.NewRGBA(image.Rect(0, 0, Size, Size))
	for y := 1; y <= Size; y++ {
		for x := 1; x <= Size; x++ {
			r := o.BlackRate(XY(x, y))
			v := uint8(255 - r*255)
			src.Set(x-1, Size-y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, Size*renderScale, (Size+1)*renderScale))
	xdraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, xdraw.Src)
	grid := image.Rect(0, 0, Size*renderScale, Size*renderScale)
	xdraw.NearestNeighbor.Scale(dst, grid, src, src.Bounds(), xdraw.Src, nil)

	if fontPath != "" {
		if err := drawColumnLabels(dst, fontPath); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "render owner map")
	}
	defer f.Close()
	if err := png.Encode(f, dst); err != nil {
		return errors.Wrap(err, "encode owner map")
	}
	return nil
}

func drawColumnLabels(dst *image.RGBA, fontPath string) error {
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return errors.Wrap(err, "read label font")
	}
	fnt, err := freetype.ParseFont(data)
	if err != nil {
		return errors.Wrap(err, "parse label font")
	}
	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(fnt)
	c.SetFontSize(renderScale * 0.6)
	c.SetClip(dst.Bounds())
	c.SetDst(dst)
	c.SetSrc(image.Black)
	baseline := Size*renderScale + renderScale*3/4
	for x := 0; x < Size; x++ {
		pt := freetype.Pt(x*renderScale+renderScale/3, baseline)
		if _, err := c.DrawString(string(columns[x]), pt); err != nil {
			return errors.Wrap(err, "draw label")
		}
	}
	return nil
}
