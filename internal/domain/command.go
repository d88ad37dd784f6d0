package domain

// Command is the closed set of remote commands the box will execute.
// Inbound payloads are decoded into exactly one of these variants by the
// dispatcher; anything that does not map onto a variant is rejected before
// it reaches the hardware.
type Command interface {
	commandMarker()
}

// CmdUnlock requests an unlock sequence with reason "remote".
type CmdUnlock struct{}

// CmdLightFlow runs the circular comet animation on the LED strip.
type CmdLightFlow struct {
	R, G, B int
	Cycles  int
	DelayMs int
}

// CmdLightOff turns the LED strip off and cancels any running animation.
type CmdLightOff struct{}

// CmdLightBrightness adjusts the strip brightness (clamped by the driver).
type CmdLightBrightness struct {
	Level float64
}

// CmdShowStatus writes up to three lines on the display.
type CmdShowStatus struct {
	Title string
	Line1 string
	Line2 string
}

func (CmdUnlock) commandMarker()          {}
func (CmdLightFlow) commandMarker()       {}
func (CmdLightOff) commandMarker()        {}
func (CmdLightBrightness) commandMarker() {}
func (CmdShowStatus) commandMarker()      {}
