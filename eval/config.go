package eval

// Config configures an evaluation worker.
type Config struct {
	Features    int `json:"features"`     // input feature planes
	Width       int `json:"width"`        // board width
	Height      int `json:"height"`       // board height
	Smoothing   int `json:"smoothing"`    // influence diffusion rounds
	ActionSpace int `json:"action_space"` // board points plus pass
}

// DefaultConfig returns the configuration for a square board of the given size.
func DefaultConfig(size int) Config {
	return Config{
		Features:    3,
		Width:       size,
		Height:      size,
		Smoothing:   4,
		ActionSpace: size*size + 1,
	}
}

func (c Config) IsValid() bool {
	return c.Features >= 2 &&
		c.Width >= 2 &&
		c.Height >= 2 &&
		c.Smoothing >= 1 &&
		c.ActionSpace == c.Width*c.Height+1
}
