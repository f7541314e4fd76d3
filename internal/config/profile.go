package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	commandsKey = "commands"
	resetLine   = "RESET_MAPPINGS"
)

// Runner runs one command line.
type Runner interface {
	Run(line string) (string, error)
}

// Profile is a settings file bound to the runner that applies it.
type Profile struct {
	path     string
	script   bool
	run      Runner
	preamble []string

	mu sync.Mutex
	v  *viper.Viper
}

// Open reads the profile at path. An empty path gives a profile that only
// applies the preamble. Files viper cannot parse are read as command scripts.
func Open(path string, run Runner, preamble []string) (*Profile, error) {
	p := &Profile{run: run, preamble: preamble}
	if path == "" {
		return p, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	p.path = abs
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(abs)), ".")
	if !slices.Contains(viper.SupportedExts, ext) {
		p.script = true
		if _, err := os.Stat(abs); err != nil {
			return nil, err
		}
		return p, nil
	}
	p.v = viper.New()
	p.v.SetConfigFile(abs)
	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", abs, err)
	}
	return p, nil
}

// Path is the absolute profile path, empty when there is none.
func (p *Profile) Path() string { return p.path }

// Lines returns the command lines the profile holds, in the order they run.
func (p *Profile) Lines() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lines()
}

func (p *Profile) lines() ([]string, error) {
	switch {
	case p.path == "":
		return nil, nil
	case p.script:
		return readScript(p.path)
	}

	keys := slices.DeleteFunc(p.v.AllKeys(), func(k string) bool { return k == commandsKey })
	slices.SortFunc(keys, func(a, b string) int {
		if r := keyRank(a) - keyRank(b); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	})
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, strings.ToUpper(k)+" = "+valueString(p.v.Get(k)))
	}
	return append(lines, p.v.GetStringSlice(commandsKey)...), nil
}

// keyRank orders assignments: the virtual controller first since virtual keys
// need it, then plain names, then chords and pairs.
func keyRank(k string) int {
	switch {
	case k == "virtual_controller":
		return 0
	case strings.ContainsAny(k[min(1, len(k)):], ",+*"):
		return 2
	}
	return 1
}

func valueString(x any) string {
	switch t := x.(type) {
	case bool:
		if t {
			return "ON"
		}
		return "OFF"
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = cast.ToString(e)
		}
		return strings.Join(parts, " ")
	}
	return cast.ToString(x)
}

func readScript(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

// Apply resets every mapping and runs the preamble and the profile. A failing line
// is logged and skipped; the joined errors are returned.
func (p *Profile) Apply() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.apply()
}

func (p *Profile) apply() error {
	lines, err := p.lines()
	if err != nil {
		return err
	}
	all := append([]string{resetLine}, p.preamble...)
	all = append(all, lines...)

	var errs []error
	for _, line := range all {
		out, err := p.run.Run(line)
		if err != nil {
			log.Printf("%s: %v", p.name(), err)
			errs = append(errs, err)
			continue
		}
		if out != "" {
			debugf("%s", out)
		}
	}
	if p.path != "" {
		log.Printf("Applied %s (%d lines, %d failed)", p.name(), len(lines), len(errs))
	}
	return errors.Join(errs...)
}

// Reload re-reads the file and applies it.
func (p *Profile) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.v != nil {
		if err := p.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", p.path, err)
		}
	}
	return p.apply()
}

func (p *Profile) name() string {
	if p.path == "" {
		return "command line"
	}
	return filepath.Base(p.path)
}

// Debug enables [DEBUG] output of applied lines.
var Debug bool

func debugf(format string, args ...any) {
	if Debug {
		log.Printf("[DEBUG] "+format, args...)
	}
}
