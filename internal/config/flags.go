// Package config reads the command line and the settings profile.
//
// A profile is either a structured file read by viper (TOML, YAML or JSON) whose
// top level maps setting and button names to values, or a plain script with one
// command per line. Both are turned into command lines and run in order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "JOYMAPPER"

// Options are the process options from flags and JOYMAPPER_* variables.
type Options struct {
	ConfigFile string
	Addr       string
	Tick       time.Duration
	Virtual    string
	Verbose    bool
	NoTray     bool
	Watch      bool
	DryRun     bool
}

// Parse reads args (without the program name). Flags win over the environment.
func Parse(args []string) (Options, error) {
	fs := pflag.NewFlagSet("joymapper", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "settings profile (.toml, .yaml, .json or a .txt command script)")
	fs.String("addr", ":8080", "HTTP listen address for the status page and sockets")
	fs.Int("tick", 0, "poll period in milliseconds, overrides TICK_TIME when set")
	fs.String("virtual", "", "virtual controller scheme: none, xbox or ds4")
	fs.BoolP("verbose", "v", false, "log debug output")
	fs.Bool("no-tray", false, "do not show the system tray icon")
	fs.Bool("watch", true, "reload the profile when it changes")
	fs.Bool("dry-run", false, "log key and mouse output instead of injecting it")
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Options{}, fmt.Errorf("bind flags: %w", err)
	}

	o := Options{
		ConfigFile: v.GetString("config"),
		Addr:       v.GetString("addr"),
		Tick:       time.Duration(v.GetInt("tick")) * time.Millisecond,
		Virtual:    strings.ToUpper(v.GetString("virtual")),
		Verbose:    v.GetBool("verbose"),
		NoTray:     v.GetBool("no-tray"),
		Watch:      v.GetBool("watch"),
		DryRun:     v.GetBool("dry-run"),
	}
	if o.Tick < 0 {
		return o, fmt.Errorf("tick must not be negative, got %s", o.Tick)
	}
	return o, nil
}

// Preamble is the command lines the options imply. They run before every
// profile application.
func (o Options) Preamble() []string {
	var lines []string
	if o.Virtual != "" {
		lines = append(lines, "VIRTUAL_CONTROLLER = "+o.Virtual)
	}
	if o.Tick > 0 {
		lines = append(lines, fmt.Sprintf("TICK_TIME = %d", o.Tick.Milliseconds()))
	}
	return lines
}
