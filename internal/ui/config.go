package ui

import "github.com/FabianRolfMatthiasNoll/gbstream/internal/input"

const (
	MinScale = 1
	MaxScale = 7
)

// Config contains window/input/audio related settings.
type Config struct {
	Title   string       // window title
	Scale   int          // integer upscaling factor, MinScale..MaxScale
	Mono    bool         // fold output to mono; applied to the renderer by NewApp
	FPS     float64      // target frame rate
	Keys    input.KeyMap // keyboard bindings
	ShotDir string       // where F12 screenshots go
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbstream"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	c.Scale = ClampScale(c.Scale)
	if c.FPS <= 0 {
		c.FPS = 60
	}
	if c.Keys == nil {
		c.Keys = input.DefaultKeyMap()
	}
	if c.ShotDir == "" {
		c.ShotDir = "."
	}
}

// ClampScale keeps a scale factor inside MinScale..MaxScale.
func ClampScale(s int) int {
	return min(max(s, MinScale), MaxScale)
}
