package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soar/joymapper/internal/gamepad"
	"github.com/soar/joymapper/internal/settings"
)

// Controls is the part of the controller manager the console drives.
type Controls interface {
	Reconnect(merge bool)
	RestartGyroCalibration()
	FinishGyroCalibration()
	SetMotionStickNeutral()
	CalibrateTriggers()
	RecommendCalibration(turns float64) string
}

// RegisterControls adds the commands that act on connected controllers.
func (d *Dispatcher) RegisterControls(c Controls) {
	merge := settings.MustLookup[gamepad.Switch](d.reg, settings.JoyconMerge)

	d.Register("RECONNECT_CONTROLLERS", "Reconnect all controllers. MERGE joins JoyCon halves into one controller, SPLIT keeps them apart.",
		func(args string) (string, error) {
			switch strings.ToUpper(args) {
			case "":
				c.Reconnect(merge.Value() == gamepad.On)
			case "MERGE":
				c.Reconnect(true)
			case "SPLIT":
				c.Reconnect(false)
			default:
				return "", fmt.Errorf("%w: RECONNECT_CONTROLLERS takes MERGE or SPLIT, got %q", ErrBadValue, args)
			}
			return "Controllers reconnected", nil
		})
	d.Register("RESTART_GYRO_CALIBRATION", "Start collecting gyro bias. Keep the controllers still.",
		func(string) (string, error) {
			c.RestartGyroCalibration()
			return "Restarting continuous gyro calibration", nil
		})
	d.Register("FINISH_GYRO_CALIBRATION", "Stop collecting gyro bias and keep the collected average.",
		func(string) (string, error) {
			c.FinishGyroCalibration()
			return "Finishing continuous gyro calibration", nil
		})
	d.Register("SET_MOTION_STICK_NEUTRAL", "Use the current controller orientation as the motion stick center.",
		func(string) (string, error) {
			c.SetMotionStickNeutral()
			return "Motion stick neutral set", nil
		})
	d.Register("CALIBRATE_TRIGGERS", "Measure where the adaptive triggers start and end. Press and release each trigger slowly.",
		func(string) (string, error) {
			c.CalibrateTriggers()
			return "Trigger calibration started", nil
		})
	d.Register("CALCULATE_REAL_WORLD_CALIBRATION", "Suggest REAL_WORLD_CALIBRATION after flicking the given number of full turns, 1 by default.",
		func(args string) (string, error) {
			turns := 1.0
			if args != "" {
				v, err := strconv.ParseFloat(args, 64)
				if err != nil {
					return "", fmt.Errorf("%w: expected a number of turns, got %q", ErrBadValue, args)
				}
				turns = v
			}
			return c.RecommendCalibration(turns), nil
		})
}
