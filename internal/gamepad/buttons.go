package gamepad

import (
	"fmt"
	"strconv"
	"strings"
)

// ButtonID identifies a logical controller input that can be bound to a mapping.
// Stick directions, rings, lean and touch-grid cells are buttons too.
type ButtonID int

const (
	ButtonInvalid ButtonID = -2
	ButtonNone    ButtonID = -1
)

const (
	ButtonUp ButtonID = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonL
	ButtonZL
	ButtonMinus
	ButtonCapture
	ButtonE
	ButtonS
	ButtonN
	ButtonW
	ButtonR
	ButtonZR
	ButtonPlus
	ButtonHome
	ButtonSL
	ButtonSR
	ButtonL3
	ButtonR3
	ButtonLUp
	ButtonLDown
	ButtonLLeft
	ButtonLRight
	ButtonLRing
	ButtonRUp
	ButtonRDown
	ButtonRLeft
	ButtonRRight
	ButtonRRing
	ButtonMUp
	ButtonMDown
	ButtonMLeft
	ButtonMRight
	ButtonMRing
	ButtonLeanLeft
	ButtonLeanRight
	ButtonTouch
	ButtonTUp
	ButtonTDown
	ButtonTLeft
	ButtonTRight
	ButtonTRing
	ButtonZLF
	ButtonZRF

	// NumButtons is the number of physical and derived buttons, touch grid excluded.
	NumButtons

	// ButtonT1 is the first touch grid cell; cells run up to ButtonT1+MaxGridCells-1.
	ButtonT1 = NumButtons
)

// MaxGridCells bounds GRID_SIZE.
const MaxGridCells = 25

var buttonNames = [...]string{
	"UP", "DOWN", "LEFT", "RIGHT", "L", "ZL", "-", "CAPTURE", "E", "S", "N", "W",
	"R", "ZR", "+", "HOME", "SL", "SR", "L3", "R3",
	"LUP", "LDOWN", "LLEFT", "LRIGHT", "LRING",
	"RUP", "RDOWN", "RLEFT", "RRIGHT", "RRING",
	"MUP", "MDOWN", "MLEFT", "MRIGHT", "MRING",
	"LEAN_LEFT", "LEAN_RIGHT", "TOUCH", "TUP", "TDOWN", "TLEFT", "TRIGHT", "TRING",
	"ZLF", "ZRF",
}

var buttonAliases = map[string]ButtonID{
	"MINUS":    ButtonMinus,
	"PLUS":     ButtonPlus,
	"SHARE":    ButtonMinus,
	"OPTIONS":  ButtonPlus,
	"PS":       ButtonHome,
	"MIC":      ButtonCapture,
	"TRIANGLE": ButtonN,
	"CIRCLE":   ButtonE,
	"CROSS":    ButtonS,
	"SQUARE":   ButtonW,
	"L1":       ButtonL,
	"R1":       ButtonR,
	"L2":       ButtonZL,
	"R2":       ButtonZR,
	"LB":       ButtonL,
	"RB":       ButtonR,
	"LT":       ButtonZL,
	"RT":       ButtonZR,
}

func (b ButtonID) String() string {
	switch {
	case b == ButtonNone:
		return "NONE"
	case b == ButtonInvalid:
		return "INVALID"
	case b >= 0 && b < NumButtons:
		return buttonNames[b]
	case b >= ButtonT1 && b < ButtonT1+MaxGridCells:
		return "T" + strconv.Itoa(int(b-ButtonT1)+1)
	}
	return fmt.Sprintf("ButtonID(%d)", int(b))
}

// IsGrid reports whether b is a touch grid cell.
func (b ButtonID) IsGrid() bool {
	return b >= ButtonT1 && b < ButtonT1+MaxGridCells
}

// Valid reports whether b names an actual button (NONE excluded).
func (b ButtonID) Valid() bool {
	return (b >= 0 && b < NumButtons) || b.IsGrid()
}

// ParseButtonID returns ButtonInvalid when name is not a button.
func ParseButtonID(name string) ButtonID {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "NONE" {
		return ButtonNone
	}
	for i, n := range buttonNames {
		if n == name {
			return ButtonID(i)
		}
	}
	if b, ok := buttonAliases[name]; ok {
		return b
	}
	if strings.HasPrefix(name, "T") {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 1 && n <= MaxGridCells {
			return ButtonT1 + ButtonID(n-1)
		}
	}
	return ButtonInvalid
}
