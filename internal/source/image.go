package source

import (
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/pkg/errors"
	_ "github.com/xfmoulet/qoi"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Axisok/qtccv/pkg/types"
)

// ImageSource is a single still image. It has zero duration and returns the
// same frame for every t.
type ImageSource struct {
	path  string
	frame *types.RawFrame
}

// OpenImage decodes the image at path.
func OpenImage(path string) (*ImageSource, error) {
	img, format, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	frame := FromImage(img)
	if frame.Width == 0 || frame.Height == 0 {
		return nil, errors.Wrapf(ErrEmpty, "%s image %s", format, path)
	}
	return &ImageSource{path: path, frame: frame}, nil
}

func (s *ImageSource) Size() (int, int) { return s.frame.Width, s.frame.Height }

func (s *ImageSource) Duration() float64 { return 0 }

// FrameAt returns a copy of the image, so callers may modify it.
func (s *ImageSource) FrameAt(t float64) (*types.RawFrame, error) {
	f := *s.frame
	f.Pix = append([]uint8(nil), s.frame.Pix...)
	f.Time = time.Duration(t * float64(time.Second))
	return &f, nil
}

func (s *ImageSource) Close() error { return nil }

func decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "source: open image")
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", errors.Wrapf(err, "source: decode %s", path)
	}
	return img, format, nil
}

func decodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, errors.Wrap(err, "source: open image")
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, errors.Wrapf(err, "source: decode config %s", path)
	}
	return cfg, nil
}

// FromImage converts img to a frame. Images decoded with straight alpha
// (NRGBA, as PNG decodes RGBA files) keep alpha as a fourth sample, so it
// counts toward the pixel mean the same way the file's raw RGBA samples
// do. Everything else becomes 3-channel RGB with alpha discarded.
func FromImage(img image.Image) *types.RawFrame {
	b := img.Bounds()

	switch src := img.(type) {
	case *image.NRGBA:
		frame := types.NewRawFrame(b.Dx(), b.Dy(), AlphaChannels)
		stride := frame.Width * AlphaChannels
		for y := 0; y < frame.Height; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(frame.Pix[y*stride:(y+1)*stride], row[:stride])
		}
		return frame
	case *image.NRGBA64:
		frame := types.NewRawFrame(b.Dx(), b.Dy(), AlphaChannels)
		for y := 0; y < frame.Height; y++ {
			for x := 0; x < frame.Width; x++ {
				c := src.NRGBA64At(b.Min.X+x, b.Min.Y+y)
				off := frame.Offset(x, y)
				frame.Pix[off] = uint8(c.R >> 8)
				frame.Pix[off+1] = uint8(c.G >> 8)
				frame.Pix[off+2] = uint8(c.B >> 8)
				frame.Pix[off+3] = uint8(c.A >> 8)
			}
		}
		return frame
	}

	frame := types.NewRawFrame(b.Dx(), b.Dy(), Channels)
	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < frame.Height; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < frame.Width; x++ {
				v := row[x]
				frame.SetRGB(x, y, v, v, v)
			}
		}
	default:
		for y := 0; y < frame.Height; y++ {
			for x := 0; x < frame.Width; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				frame.SetRGB(x, y, c.R, c.G, c.B)
			}
		}
	}
	return frame
}
