package atlas

import "fmt"

// Transform is one of the eight symmetries of the square (the dihedral
// group D8), using the usual rotate/mirror numbering of 2D renderers. Tiled
// flip flags map onto it through the table below.
type Transform uint8

const (
	Identity       Transform = 0
	Rotate270      Transform = 2 // diagonal + vertical: a quarter turn counter-clockwise
	Rotate180      Transform = 4
	Rotate90       Transform = 6 // diagonal + horizontal: a quarter turn clockwise
	FlipVertical   Transform = 8
	Transpose      Transform = 10
	FlipHorizontal Transform = 12
	AntiTranspose  Transform = 14
)

// transforms is indexed [diagonal][horizontal][vertical].
var transforms = [2][2][2]Transform{
	{
		{Identity, FlipVertical},
		{FlipHorizontal, Rotate180},
	},
	{
		{Transpose, Rotate270},
		{Rotate90, AntiTranspose},
	},
}

// TransformFor returns the transform for a set of Tiled flip flags.
func TransformFor(h, v, d bool) Transform {
	return transforms[b2i(d)][b2i(h)][b2i(v)]
}

// Flags returns the Tiled flip flags that produce t. Values outside the
// table have no flags, like Identity.
func (t Transform) Flags() (h, v, d bool) {
	for di := 0; di < 2; di++ {
		for hi := 0; hi < 2; hi++ {
			for vi := 0; vi < 2; vi++ {
				if transforms[di][hi][vi] == t {
					return hi == 1, vi == 1, di == 1
				}
			}
		}
	}
	return false, false, false
}

// SwapsAxes reports whether the transform exchanges width and height.
func (t Transform) SwapsAxes() bool {
	_, _, d := t.Flags()
	return d
}

func (t Transform) String() string {
	switch t {
	case Identity:
		return "identity"
	case Rotate270:
		return "rotate270"
	case Rotate180:
		return "rotate180"
	case Rotate90:
		return "rotate90"
	case FlipVertical:
		return "flip-vertical"
	case Transpose:
		return "transpose"
	case FlipHorizontal:
		return "flip-horizontal"
	case AntiTranspose:
		return "anti-transpose"
	}
	return fmt.Sprintf("transform(%d)", uint8(t))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
