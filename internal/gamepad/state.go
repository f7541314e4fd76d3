package gamepad

import (
	"math"
	"slices"
)

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type StickState struct {
	Position Vector `json:"position"`
	Mode     string `json:"mode"`
}

type TriggerState struct {
	Value float64 `json:"value"`
	Phase string  `json:"phase"`
}

type SticksState struct {
	Left   StickState `json:"left"`
	Right  StickState `json:"right"`
	Motion StickState `json:"motion"`
}

type TriggersState struct {
	LT TriggerState `json:"lt"`
	RT TriggerState `json:"rt"`
}

// State is the telemetry snapshot of one mapped controller.
type State struct {
	Connected      bool          `json:"connected"`
	Handle         int           `json:"handle"`
	ControllerType string        `json:"controllerType"`
	Name           string        `json:"name"`
	Split          string        `json:"split"`
	Pressed        []string      `json:"pressed"`
	Chords         []string      `json:"chords"`
	Sticks         SticksState   `json:"sticks"`
	Triggers       TriggersState `json:"triggers"`
	Gyro           Vector        `json:"gyro"`
}

type DeltaChanges struct {
	Connected      *bool          `json:"connected,omitempty"`
	ControllerType *string        `json:"controllerType,omitempty"`
	Name           *string        `json:"name,omitempty"`
	Pressed        []string       `json:"pressed,omitempty"`
	Chords         []string       `json:"chords,omitempty"`
	Sticks         *SticksState   `json:"sticks,omitempty"`
	Triggers       *TriggersState `json:"triggers,omitempty"`
	Gyro           *Vector        `json:"gyro,omitempty"`
}

func (d *DeltaChanges) IsEmpty() bool {
	return d.Connected == nil &&
		d.ControllerType == nil &&
		d.Name == nil &&
		d.Pressed == nil &&
		d.Chords == nil &&
		d.Sticks == nil &&
		d.Triggers == nil &&
		d.Gyro == nil
}

const analogThreshold = 0.01

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

func vectorEqual(a, b Vector) bool {
	return floatEqual(a.X, b.X) && floatEqual(a.Y, b.Y)
}

func stickEqual(a, b StickState) bool {
	return vectorEqual(a.Position, b.Position) && a.Mode == b.Mode
}

// ComputeDelta returns the fields of new_ that differ from old. Released buttons
// are reported as an empty, non-nil Pressed slice.
func ComputeDelta(old, new_ State) *DeltaChanges {
	d := &DeltaChanges{}

	if old.Connected != new_.Connected {
		d.Connected = &new_.Connected
	}
	if old.ControllerType != new_.ControllerType {
		d.ControllerType = &new_.ControllerType
	}
	if old.Name != new_.Name {
		d.Name = &new_.Name
	}
	if !slices.Equal(old.Pressed, new_.Pressed) {
		d.Pressed = nonNil(new_.Pressed)
	}
	if !slices.Equal(old.Chords, new_.Chords) {
		d.Chords = nonNil(new_.Chords)
	}

	if !stickEqual(old.Sticks.Left, new_.Sticks.Left) ||
		!stickEqual(old.Sticks.Right, new_.Sticks.Right) ||
		!stickEqual(old.Sticks.Motion, new_.Sticks.Motion) {
		d.Sticks = &new_.Sticks
	}

	if !floatEqual(old.Triggers.LT.Value, new_.Triggers.LT.Value) ||
		!floatEqual(old.Triggers.RT.Value, new_.Triggers.RT.Value) ||
		old.Triggers.LT.Phase != new_.Triggers.LT.Phase ||
		old.Triggers.RT.Phase != new_.Triggers.RT.Phase {
		d.Triggers = &new_.Triggers
	}

	if !vectorEqual(old.Gyro, new_.Gyro) {
		d.Gyro = &new_.Gyro
	}

	return d
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
