// Package input implements controller handling for the NES.
package input

import (
	"nescore/internal/logger"
)

// Button represents NES controller buttons
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Convenience constants for shorter names used by host key-mapping code.
const (
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
	Up     = ButtonUp
	Down   = ButtonDown
	Left   = ButtonLeft
	Right  = ButtonRight
)

// Controller implements the NES controller's serial-shift-register protocol.
type Controller struct {
	buttons uint8 // live button state, order: A B Select Start Up Down Left Right

	shiftRegister  uint8
	strobe         bool
	buttonSnapshot uint8
	bitPosition    uint8 // 0-7 walks buttonSnapshot bits; 8+ reads as 0

	readCount  uint64
	writeCount uint64
	log        *logger.Logger
}

// New creates a new Controller instance
func New() *Controller {
	return &Controller{log: logger.Discard("controller")}
}

// SetLogger attaches a logger for trace-level button/protocol diagnostics.
func (c *Controller) SetLogger(l *logger.Logger) {
	if l != nil {
		c.log = l
	}
}

// SetButton sets the state of a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	old := c.buttons
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
	c.log.Tracef("SetButton: button=%d pressed=%t buttons=%02X->%02X", uint8(button), pressed, old, c.buttons)
}

// SetButtons sets all eight button states at once, in NES order:
// A, B, Select, Start, Up, Down, Left, Right.
func (c *Controller) SetButtons(buttons [8]bool) {
	old := c.buttons
	c.buttons = 0
	bits := [8]Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= uint8(bits[i])
		}
	}
	c.log.Tracef("SetButtons: buttons=%02X->%02X", old, c.buttons)
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return (c.buttons & uint8(button)) != 0
}

// Write handles writes to the controller register ($4016). Strobe high
// continuously latches live state; the falling edge snapshots it for serial
// readout.
func (c *Controller) Write(value uint8) {
	c.writeCount++
	wasStrobe := c.strobe
	c.strobe = value&1 != 0

	if c.strobe {
		c.buttonSnapshot = c.buttons
		c.shiftRegister = c.buttons
		c.bitPosition = 0
	} else if wasStrobe {
		c.buttonSnapshot = c.buttons
		c.shiftRegister = c.buttonSnapshot
		c.bitPosition = 0
	}
}

// Read handles reads from the controller register ($4016/$4017): one bit per
// access in order A, B, Select, Start, Up, Down, Left, Right, then zeros.
func (c *Controller) Read() uint8 {
	c.readCount++

	if c.strobe {
		c.bitPosition = 0
		return c.buttonSnapshot & 1
	}

	var result uint8
	if c.bitPosition < 8 {
		result = c.shiftRegister & 1
		c.shiftRegister >>= 1
	}
	c.bitPosition++
	return result
}

// Reset resets the controller state
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
	c.buttonSnapshot = 0
	c.bitPosition = 0
	c.readCount = 0
	c.writeCount = 0
}

// GetBitPosition returns the current bit position (for testing)
func (c *Controller) GetBitPosition() uint8 {
	return c.bitPosition
}

// InputState represents the state of all input devices
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates a new input state with two controllers
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset resets all input devices
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// SetLogger attaches a logger to both controllers.
func (is *InputState) SetLogger(l *logger.Logger) {
	is.Controller1.SetLogger(l.WithPrefix("controller1"))
	is.Controller2.SetLogger(l.WithPrefix("controller2"))
}

// SetButtons1 sets all button states for controller 1 (array approach)
func (is *InputState) SetButtons1(buttons [8]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 sets all button states for controller 2 (array approach)
func (is *InputState) SetButtons2(buttons [8]bool) {
	is.Controller2.SetButtons(buttons)
}

// Read reads from controller ports
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		// Controller 2's upper bits read back as open-bus 1s on real hardware.
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write writes to controller ports. Both controllers receive the same strobe
// signal from $4016.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
