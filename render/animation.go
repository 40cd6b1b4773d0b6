package render

// TileAnimation steps the frames of animated tiles. A single instance
// drives every animated tile of a map so they stay in step.
type TileAnimation struct {
	SpeedInTps   float32 // how many ticks before next frame
	frameCounter float32
	frame        int
}

func NewTileAnimation(speed float32) *TileAnimation {
	return &TileAnimation{
		SpeedInTps:   speed,
		frameCounter: speed,
	}
}

// Update advances the animation by one tick.
func (a *TileAnimation) Update() {
	a.frameCounter -= 1.0
	if a.frameCounter < 0.0 {
		a.frameCounter = a.SpeedInTps
		a.frame++
	}
}

// Frame returns the current frame of an animation of length frames.
func (a *TileAnimation) Frame(length int) int {
	if a == nil || length <= 0 {
		return 0
	}
	return a.frame % length
}

func (a *TileAnimation) Restart() {
	a.frame = 0
	a.frameCounter = a.SpeedInTps
}
