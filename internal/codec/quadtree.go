package codec

import (
	"github.com/Axisok/qtccv/internal/bitstream"
	"github.com/Axisok/qtccv/internal/logger"
	"github.com/Axisok/qtccv/internal/quadtree"
)

const quadtreeHelp = `QuadTree (Binary)

Each frame is reduced to black and white and compared with the previous
one. Only the rectangle that changed is stored. Inside it the changed
pixels are split into quarters until every part is a single color.

Frames with no change cost only the rectangle fields. Large, mostly
static videos compress best; expect roughly 10-30% of the 1 bit per
pixel size.`

func init() {
	Register(quadtreeFactory{})
	RegisterAlias("qtb", "quadtree")
}

type quadtreeFactory struct{}

func (quadtreeFactory) Name() string { return "quadtree" }

func (quadtreeFactory) Help() string { return quadtreeHelp }

func (quadtreeFactory) New(width, height int, sink *bitstream.Writer, opts Options) (FrameEncoder, error) {
	enc, err := quadtree.NewEncoder(width, height, sink)
	if err != nil {
		return nil, err
	}

	module := opts.Module
	if module == "" {
		module = "QuadTree"
	}
	if opts.Lossiness > 0 {
		logger.Debug(module, "Lossiness %.2f recorded but not applied", opts.Lossiness)
	}
	logger.Debug(module, "Encoder %dx%d, coordinate fields %d/%d bits",
		width, height, enc.WidthBits(), enc.HeightBits())

	return &quadtreeEncoder{Encoder: enc}, nil
}

type quadtreeEncoder struct {
	*quadtree.Encoder
}

func (e *quadtreeEncoder) Stats() FrameStats {
	s := e.LastFrame()
	return FrameStats{
		Changed: !s.Unchanged(),
		Nodes:   s.Nodes,
		Leaves:  s.Leaves,
		Bits:    s.Bits,
	}
}
