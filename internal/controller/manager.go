package controller

import (
	"fmt"
	"log"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/soar/joymapper/internal/binding"
	"github.com/soar/joymapper/internal/button"
	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/output"
	"github.com/soar/joymapper/internal/settings"
)

// Debug enables [DEBUG] log lines.
var Debug bool

func debugf(format string, args ...any) {
	if Debug {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// NotifyFunc receives what a game sends to a virtual controller: motor speeds
// and the light bar color.
type NotifyFunc func(small, big uint8, led gamepad.Color)

// VirtualFactory builds a virtual controller of the given scheme.
type VirtualFactory func(scheme gamepad.ControllerScheme, notify NotifyFunc) (output.VirtualController, error)

// Manager owns the connected controllers and the state they share: the settings
// registry, the binding table and the output sinks.
type Manager struct {
	reg   *settings.Registry
	table *binding.Table
	keys  output.KeyMouse
	cal   *Calibration

	// NewVirtual builds virtual controllers; nil disables them.
	NewVirtual VirtualFactory
	// Command receives console commands bound to keys. It is called with a
	// controller locked and must not block.
	Command func(text string)
	// OSMouseSpeed is the operating system pointer speed multiplier.
	OSMouseSpeed float64

	scheme *settings.Setting[gamepad.ControllerScheme]
	merge  *settings.Setting[gamepad.Switch]
	rwc    *settings.Setting[float64]

	mu          sync.RWMutex
	devices     map[int]Device
	controllers map[int]*Controller
	virtual     map[*button.Context]output.VirtualController

	flickMu   sync.Mutex
	lastFlick float64

	changes chan gamepad.State
}

// NewManager registers the default settings in r, gated on this manager's
// virtual controllers, and builds an empty binding table. Mapped keyboard and
// mouse output goes to keys.
func NewManager(r *settings.Registry, keys output.KeyMouse) *Manager {
	m := &Manager{
		reg:          r,
		keys:         keys,
		OSMouseSpeed: 1,
		devices:      make(map[int]Device),
		controllers:  make(map[int]*Controller),
		virtual:      make(map[*button.Context]output.VirtualController),
		changes:      make(chan gamepad.State, 64),
	}
	settings.RegisterDefaults(r, m)
	m.table = binding.NewTable(m)
	m.cal = NewCalibration(r)
	m.scheme = settings.MustLookup[gamepad.ControllerScheme](r, settings.VirtualController)
	m.merge = settings.MustLookup[gamepad.Switch](r, settings.JoyconMerge)
	m.rwc = settings.MustLookup[float64](r, settings.RealWorldCalibration)
	m.scheme.Subscribe(settings.ListenerFunc[gamepad.ControllerScheme](m.applyScheme))
	return m
}

func (m *Manager) Registry() *settings.Registry { return m.reg }

func (m *Manager) Table() *binding.Table { return m.table }

// Changes returns the channel telemetry snapshots are sent on.
func (m *Manager) Changes() <-chan gamepad.State {
	return m.changes
}

func (m *Manager) emit(s gamepad.State) {
	select {
	case m.changes <- s:
	default:
		// Drop if the channel is full to avoid blocking the poll
	}
}

// Scheme is the configured VIRTUAL_CONTROLLER.
func (m *Manager) Scheme() gamepad.ControllerScheme {
	return m.scheme.Value()
}

// Ready reports whether every connected controller has a virtual controller.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.controllers {
		if m.virtual[c.ctx] == nil {
			return false
		}
	}
	return true
}

// Count returns the number of connected devices.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.controllers)
}

// Handles lists the connected device handles in order.
func (m *Manager) Handles() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, 0, len(m.controllers))
	for h := range m.controllers {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}

// Controller returns the controller for handle, or nil.
func (m *Manager) Controller(handle int) *Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controllers[handle]
}

// Connect adds a device. With JOYCON_MERGE on, a joycon joins an unpaired
// joycon of the other side and both share one button Context.
func (m *Manager) Connect(handle int, d Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.controllers[handle]; ok {
		m.dropLocked(old)
	}
	m.devices[handle] = d
	m.addLocked(handle, d, m.merge.Value() == gamepad.On)
	log.Printf("%d devices connected", len(m.controllers))
}

// Disconnect removes a device and releases everything it held.
func (m *Manager) Disconnect(handle int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.devices, handle)
	c, ok := m.controllers[handle]
	if !ok {
		return
	}
	m.dropLocked(c)
	log.Printf("%d devices connected", len(m.controllers))
}

// Reconnect rebuilds every controller from the known devices, pairing joycons
// when merge is set.
func (m *Manager) Reconnect(merge bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.controllers {
		m.dropLocked(c)
	}
	handles := make([]int, 0, len(m.devices))
	for h := range m.devices {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	for _, h := range handles {
		m.addLocked(h, m.devices[h], merge)
	}
	switch n := len(m.controllers); n {
	case 0:
		log.Println("No devices connected")
	case 1:
		log.Println("1 device connected")
	default:
		log.Printf("%d devices connected", n)
	}
}

func (m *Manager) addLocked(handle int, d Device, merge bool) {
	var ctx *button.Context
	var partner *Controller
	if merge && d.Split != gamepad.SplitFull {
		partner = m.partnerLocked(d.Split)
	}
	if partner != nil {
		log.Println("Found a joycon pair!")
		ctx = partner.ctx
	} else {
		ctx = button.NewContext(m.reg, m.table, m.keys)
		ctx.Feedback = d.Feedback
		ctx.Command = m.Command
	}

	c := newController(handle, d, ctx, m.reg, m.cal)
	c.sticks.OSMouseSpeed = m.OSMouseSpeed
	c.sticks.OnFlick = m.recordFlick
	c.onState = m.emit

	ctx.Lock()
	if partner != nil {
		ctx.Calibration = motions{partner.motion, c.motion}
	} else {
		ctx.Calibration = c.motion
		m.attachVirtualLocked(ctx, m.scheme.Value())
	}
	ctx.Unlock()
	m.controllers[handle] = c
}

// partnerLocked finds a connected half of the other side that has no partner yet.
func (m *Manager) partnerLocked(split gamepad.SplitType) *Controller {
	shared := make(map[*button.Context]int)
	for _, c := range m.controllers {
		shared[c.ctx]++
	}
	handles := make([]int, 0, len(m.controllers))
	for h := range m.controllers {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	for _, h := range handles {
		c := m.controllers[h]
		if c.Split != gamepad.SplitFull && c.Split != split && shared[c.ctx] == 1 {
			return c
		}
	}
	return nil
}

func (m *Manager) dropLocked(c *Controller) {
	c.release(time.Now())
	delete(m.controllers, c.Handle)
	m.emit(gamepad.State{Handle: c.Handle})
	for _, other := range m.controllers {
		if other.ctx == c.ctx {
			return
		}
	}
	if v := m.virtual[c.ctx]; v != nil {
		if err := v.Close(); err != nil {
			log.Printf("Closing virtual controller: %v", err)
		}
		delete(m.virtual, c.ctx)
		c.ctx.Lock()
		c.ctx.Virtual = nil
		c.ctx.Unlock()
	}
}

// applyScheme replaces every virtual controller when VIRTUAL_CONTROLLER changes.
func (m *Manager) applyScheme(scheme gamepad.ControllerScheme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	done := make(map[*button.Context]bool)
	for _, c := range m.controllers {
		if done[c.ctx] {
			continue
		}
		done[c.ctx] = true
		c.ctx.Lock()
		m.attachVirtualLocked(c.ctx, scheme)
		c.ctx.Unlock()
	}
}

// attachVirtualLocked swaps ctx's virtual controller for one of scheme. The
// caller holds both m.mu and ctx.
func (m *Manager) attachVirtualLocked(ctx *button.Context, scheme gamepad.ControllerScheme) {
	if old := m.virtual[ctx]; old != nil {
		if old.Scheme() == scheme {
			return
		}
		if err := old.Close(); err != nil {
			log.Printf("Closing virtual controller: %v", err)
		}
		delete(m.virtual, ctx)
		ctx.Virtual = nil
	}
	if scheme == gamepad.SchemeNone || m.NewVirtual == nil {
		return
	}
	v, err := m.NewVirtual(scheme, func(small, big uint8, led gamepad.Color) {
		m.onVirtualNotification(ctx, small, big, led)
	})
	if err != nil {
		log.Printf("Could not create the %s virtual controller: %v", scheme, err)
		return
	}
	m.virtual[ctx] = v
	ctx.Virtual = v
}

// onVirtualNotification forwards what the game sends the virtual controller to
// the physical devices behind it.
func (m *Manager) onVirtualNotification(ctx *button.Context, small, big uint8, led gamepad.Color) {
	m.mu.RLock()
	var targets []*Controller
	for _, c := range m.controllers {
		if c.ctx == ctx && c.Feedback != nil {
			targets = append(targets, c)
		}
	}
	m.mu.RUnlock()

	ctx.Lock()
	defer ctx.Unlock()
	rumble := settings.MustLookup[gamepad.Switch](m.reg, settings.Rumble).Value() == gamepad.On
	for _, c := range targets {
		if c.Type == gamepad.TypeDS4 || c.Type == gamepad.TypeDualSense {
			c.Feedback.SetLightBar(led)
			c.lightBar, c.lightSet = led, true
		}
		if rumble {
			c.Feedback.Rumble(small, big)
		}
	}
}

// Poll runs one tick for the device at handle.
func (m *Manager) Poll(handle int, s gamepad.Sample) {
	if c := m.Controller(handle); c != nil {
		c.Poll(s)
	}
}

// Touch forwards a touchpad update to the device at handle.
func (m *Manager) Touch(handle int, t gamepad.Touch) {
	if c := m.Controller(handle); c != nil {
		c.Touch(t)
	}
}

func (m *Manager) each(f func(c *Controller)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.controllers {
		f(c)
	}
}

// ReleaseAll returns every button of every controller to rest.
func (m *Manager) ReleaseAll() {
	now := time.Now()
	m.each(func(c *Controller) { c.release(now) })
}

// FinishGyroCalibration stops manual gyro calibration on every device.
func (m *Manager) FinishGyroCalibration() {
	log.Println("Finishing continuous calibration for all devices")
	m.each(func(c *Controller) {
		c.ctx.Lock()
		c.motion.FinishCalibration()
		c.ctx.Unlock()
	})
}

// RestartGyroCalibration discards the gyro offsets and starts calibrating again.
func (m *Manager) RestartGyroCalibration() {
	log.Println("Restarting continuous calibration for all devices")
	m.each(func(c *Controller) {
		c.ctx.Lock()
		c.motion.StartCalibration()
		c.ctx.Unlock()
	})
}

// SetMotionStickNeutral takes the current pose of every device as the motion
// stick's center.
func (m *Manager) SetMotionStickNeutral() {
	log.Println("Setting neutral motion stick orientation...")
	m.each((*Controller).SetNeutral)
}

// CalibrateTriggers starts the adaptive trigger calibration sequence.
func (m *Manager) CalibrateTriggers() {
	m.cal.Start()
}

func (m *Manager) recordFlick(turns float64) {
	m.flickMu.Lock()
	defer m.flickMu.Unlock()
	m.lastFlick = math.Abs(turns)
}

// RecommendCalibration suggests a REAL_WORLD_CALIBRATION from the last flick,
// assuming it turned the camera by turns full rotations in game.
func (m *Manager) RecommendCalibration(turns float64) string {
	m.flickMu.Lock()
	last := m.lastFlick
	m.flickMu.Unlock()
	if last == 0 {
		return "Need to use the flick stick at least once before calculating an appropriate calibration value."
	}
	if turns <= 0 {
		turns = 1
	}
	return fmt.Sprintf("Recommendation: REAL_WORLD_CALIBRATION = %.5g", m.rwc.Value()*last/turns)
}

// Close releases every controller and virtual controller.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.controllers {
		m.dropLocked(c)
	}
}

// motions fans CALIBRATE out to both halves of a joycon pair.
type motions []button.Calibrator

func (ms motions) StartCalibration() {
	for _, c := range ms {
		c.StartCalibration()
	}
}

func (ms motions) FinishCalibration() {
	for _, c := range ms {
		c.FinishCalibration()
	}
}
