package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TTFFace draws labels with a TrueType font for figure quality output,
// supporting the full character range of the loaded font.  The Hershey
// fonts used by Font render much faster.
type TTFFace struct {
	// face is the loaded TTF font face
	face font.Face
}

// LoadTTFFace loads a TrueType font from file and returns a face for
// drawing labels at the given size in points
func LoadTTFFace(fontPath string, size float64) (*TTFFace, error) {

	// load font data
	fontBytes, err := os.ReadFile(fontPath)

	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	// parse the font
	f, err := opentype.Parse(fontBytes)

	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	// create a type face
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create type face: %w", err)
	}

	return &TTFFace{face: face}, nil
}

// DrawLabel writes text on img with the baseline starting at x, y.  The
// label layer keeps the channel order of img, so clr is interpreted in
// that same order.
func (t *TTFFace) DrawLabel(img *gocv.Mat, text string, x, y int,
	clr color.RGBA) error {

	// create image with text writing
	rgba := image.NewRGBA(image.Rect(0, 0, img.Cols(), img.Rows()))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 0}),
		image.Point{}, draw.Src)

	dr := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(clr),
		Face: t.face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y * 64),
		},
	}
	dr.DrawString(text)

	// convert image.RGBA to gocv.Mat
	layer, err := gocv.NewMatFromBytes(rgba.Bounds().Dy(), rgba.Bounds().Dx(),
		gocv.MatTypeCV8UC4, rgba.Pix)

	if layer.Empty() || err != nil {
		return fmt.Errorf("error creating Mat from RGBA")
	}

	defer layer.Close()

	// drop the alpha channel without reordering channels
	gocv.CvtColor(layer, &layer, gocv.ColorBGRAToBGR)
	gocv.AddWeighted(*img, 1.0, layer, 1.0, 0, img)

	return nil
}
