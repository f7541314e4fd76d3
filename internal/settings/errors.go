package settings

import "errors"

var (
	// ErrUnknownSetting is returned when an id has no registered setting.
	ErrUnknownSetting = errors.New("unknown setting")
	// ErrWrongType is returned when a setting is looked up with a type it was not registered with.
	ErrWrongType = errors.New("setting type mismatch")
	// ErrUnresolved is returned when no chord level produced a value.
	ErrUnresolved = errors.New("setting has no value for the chord stack")
)
