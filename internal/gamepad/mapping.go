package gamepad

import "math"

// ControllerType is the physical controller family.
type ControllerType int

const (
	TypeGeneric ControllerType = iota
	TypeXbox
	TypeDS4
	TypeDualSense
	TypeProController
	TypeJoyconLeft
	TypeJoyconRight
)

var controllerTypeNames = []string{"generic", "xbox", "ds4", "dualsense", "switch_pro", "joycon_left", "joycon_right"}

func (t ControllerType) String() string { return enumString(controllerTypeNames, int(t), "ControllerType") }

// HasDigitalTriggers reports whether ZL/ZR only report fully pressed or released.
func (t ControllerType) HasDigitalTriggers() bool {
	return t == TypeProController || t == TypeJoyconLeft || t == TypeJoyconRight
}

// SplitType tells which half of a split controller pair a device is.
type SplitType int

const (
	SplitFull SplitType = iota
	SplitLeft
	SplitRight
)

func (s SplitType) String() string {
	switch s {
	case SplitLeft:
		return "left"
	case SplitRight:
		return "right"
	}
	return "full"
}

// HasLeft reports whether the device carries the left half of the controls.
func (s SplitType) HasLeft() bool { return s != SplitRight }

// HasRight reports whether the device carries the right half of the controls.
func (s SplitType) HasRight() bool { return s != SplitLeft }

// AxisTarget names the analog input a raw axis drives.
type AxisTarget int

const (
	AxisLeftX AxisTarget = iota
	AxisLeftY
	AxisRightX
	AxisRightY
	AxisLeftTrigger
	AxisRightTrigger
)

// AxisMapping defines how a raw axis index maps to an analog input.
type AxisMapping struct {
	Index  int32
	Target AxisTarget
	Invert bool
	// For triggers: raw range. Some devices use -32768..32767, others 0..32767.
	RawMin int16
	RawMax int16
}

func (a AxisMapping) IsTrigger() bool {
	return a.Target == AxisLeftTrigger || a.Target == AxisRightTrigger
}

// ButtonMapping defines how a raw button index maps to a ButtonID.
type ButtonMapping struct {
	Index  int32
	Target ButtonID
}

// DeviceMapping holds the complete mapping for a specific device type.
type DeviceMapping struct {
	Name    string
	Type    ControllerType
	Split   SplitType
	Axes    []AxisMapping
	Buttons []ButtonMapping
	HasHat  bool
}

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	v := float64(raw) / math.MaxInt16
	if v < -1.0 {
		v = -1.0
	}
	return v
}

// NormalizeTrigger converts a raw trigger value to 0.0..1.0.
func NormalizeTrigger(raw int16, rawMin, rawMax int16) float64 {
	if rawMax == rawMin {
		return 0
	}
	v := (float64(raw) - float64(rawMin)) / (float64(rawMax) - float64(rawMin))
	return math.Max(0, math.Min(1, v))
}

var standardSticks = []AxisMapping{
	{Index: 0, Target: AxisLeftX},
	{Index: 1, Target: AxisLeftY, Invert: true},
	{Index: 2, Target: AxisRightX},
	{Index: 3, Target: AxisRightY, Invert: true},
}

func withTriggers(axes []AxisMapping) []AxisMapping {
	out := append([]AxisMapping(nil), axes...)
	return append(out,
		AxisMapping{Index: 4, Target: AxisLeftTrigger, RawMin: -32768, RawMax: 32767},
		AxisMapping{Index: 5, Target: AxisRightTrigger, RawMin: -32768, RawMax: 32767},
	)
}

var xboxButtons = []ButtonMapping{
	{Index: 0, Target: ButtonS},
	{Index: 1, Target: ButtonE},
	{Index: 2, Target: ButtonW},
	{Index: 3, Target: ButtonN},
	{Index: 4, Target: ButtonL},
	{Index: 5, Target: ButtonR},
	{Index: 6, Target: ButtonMinus},
	{Index: 7, Target: ButtonPlus},
	{Index: 8, Target: ButtonL3},
	{Index: 9, Target: ButtonR3},
	{Index: 10, Target: ButtonHome},
}

var playstationButtons = []ButtonMapping{
	{Index: 0, Target: ButtonS}, // Cross
	{Index: 1, Target: ButtonE}, // Circle
	{Index: 2, Target: ButtonW}, // Square
	{Index: 3, Target: ButtonN}, // Triangle
	{Index: 4, Target: ButtonMinus},
	{Index: 5, Target: ButtonHome},
	{Index: 6, Target: ButtonPlus},
	{Index: 7, Target: ButtonL3},
	{Index: 8, Target: ButtonR3},
	{Index: 9, Target: ButtonL},
	{Index: 10, Target: ButtonR},
	{Index: 11, Target: ButtonCapture}, // touchpad click / mic
}

var nintendoButtons = []ButtonMapping{
	{Index: 0, Target: ButtonE}, // A sits east on Nintendo layouts
	{Index: 1, Target: ButtonS},
	{Index: 2, Target: ButtonN},
	{Index: 3, Target: ButtonW},
	{Index: 4, Target: ButtonL},
	{Index: 5, Target: ButtonR},
	{Index: 6, Target: ButtonZL},
	{Index: 7, Target: ButtonZR},
	{Index: 8, Target: ButtonMinus},
	{Index: 9, Target: ButtonPlus},
	{Index: 10, Target: ButtonL3},
	{Index: 11, Target: ButtonR3},
	{Index: 12, Target: ButtonHome},
	{Index: 13, Target: ButtonCapture},
}

var xboxMapping = &DeviceMapping{
	Name:    "xbox",
	Type:    TypeXbox,
	Axes:    withTriggers(standardSticks),
	Buttons: xboxButtons,
	HasHat:  true,
}

var ds4Mapping = &DeviceMapping{
	Name:    "ds4",
	Type:    TypeDS4,
	Axes:    withTriggers(standardSticks),
	Buttons: playstationButtons,
	HasHat:  true,
}

var dualSenseMapping = &DeviceMapping{
	Name:    "dualsense",
	Type:    TypeDualSense,
	Axes:    withTriggers(standardSticks),
	Buttons: playstationButtons,
	HasHat:  true,
}

var switchProMapping = &DeviceMapping{
	Name:    "switch_pro",
	Type:    TypeProController,
	Axes:    standardSticks,
	Buttons: nintendoButtons,
	HasHat:  true,
}

var joyconLeftMapping = &DeviceMapping{
	Name:  "joycon_left",
	Type:  TypeJoyconLeft,
	Split: SplitLeft,
	Axes: []AxisMapping{
		{Index: 0, Target: AxisLeftX},
		{Index: 1, Target: AxisLeftY, Invert: true},
	},
	Buttons: []ButtonMapping{
		{Index: 0, Target: ButtonLeft},
		{Index: 1, Target: ButtonDown},
		{Index: 2, Target: ButtonUp},
		{Index: 3, Target: ButtonRight},
		{Index: 4, Target: ButtonSL},
		{Index: 5, Target: ButtonSR},
		{Index: 6, Target: ButtonL},
		{Index: 7, Target: ButtonZL},
		{Index: 8, Target: ButtonMinus},
		{Index: 10, Target: ButtonL3},
		{Index: 13, Target: ButtonCapture},
	},
}

var joyconRightMapping = &DeviceMapping{
	Name:  "joycon_right",
	Type:  TypeJoyconRight,
	Split: SplitRight,
	Axes: []AxisMapping{
		{Index: 0, Target: AxisRightX},
		{Index: 1, Target: AxisRightY, Invert: true},
	},
	Buttons: []ButtonMapping{
		{Index: 0, Target: ButtonE},
		{Index: 1, Target: ButtonN},
		{Index: 2, Target: ButtonS},
		{Index: 3, Target: ButtonW},
		{Index: 4, Target: ButtonSL},
		{Index: 5, Target: ButtonSR},
		{Index: 6, Target: ButtonR},
		{Index: 7, Target: ButtonZR},
		{Index: 9, Target: ButtonPlus},
		{Index: 11, Target: ButtonR3},
		{Index: 12, Target: ButtonHome},
	},
}

var genericMapping = &DeviceMapping{
	Name:    "generic",
	Type:    TypeGeneric,
	Axes:    withTriggers(standardSticks),
	Buttons: xboxButtons,
	HasHat:  true,
}

// Known vendor/product IDs.
type deviceKey struct {
	VendorID  uint16
	ProductID uint16
}

var knownDevices = map[deviceKey]*DeviceMapping{
	// Microsoft Xbox controllers
	{0x045E, 0x028E}: xboxMapping, // Xbox 360
	{0x045E, 0x02FF}: xboxMapping, // Xbox One
	{0x045E, 0x0B12}: xboxMapping, // Xbox Series X|S
	{0x045E, 0x0B13}: xboxMapping, // Xbox Series X|S (wireless)
	// Sony PlayStation controllers
	{0x054C, 0x0CE6}: dualSenseMapping,
	{0x054C, 0x0DF2}: dualSenseMapping, // DualSense Edge
	{0x054C, 0x09CC}: ds4Mapping,       // DualShock 4 v2
	{0x054C, 0x05C4}: ds4Mapping,       // DualShock 4 v1
	// Nintendo
	{0x057E, 0x2009}: switchProMapping,
	{0x057E, 0x2006}: joyconLeftMapping,
	{0x057E, 0x2007}: joyconRightMapping,
}

// GetMapping returns the appropriate mapping for a device identified by vendor/product ID.
// Falls back to generic mapping if no specific mapping is found.
func GetMapping(vendorID, productID uint16) *DeviceMapping {
	key := deviceKey{VendorID: vendorID, ProductID: productID}
	if m, ok := knownDevices[key]; ok {
		return m
	}
	return genericMapping
}
