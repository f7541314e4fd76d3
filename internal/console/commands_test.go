package console

import (
	"context"
	"slices"
	"strings"
	"testing"
)

type lines []string

func (l *lines) Exec(line string) { *l = append(*l, line) }

func TestReadCommands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
		quit  bool
	}{
		{"plain", "E = SPACE\nS = ESC\n", []string{"E = SPACE", "S = ESC"}, false},
		{"blank lines", "\n  \nGYRO_SENS = 2  \n", []string{"GYRO_SENS = 2"}, false},
		{"quit", "E = SPACE\nquit\nS = ESC\n", []string{"E = SPACE"}, true},
		{"no trailing newline", "HELP", []string{"HELP"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got lines
			quit := false
			err := ReadCommands(context.Background(), strings.NewReader(tt.input), &got, func() { quit = true })
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if quit != tt.quit {
				t.Errorf("expected quit=%t, got %t", tt.quit, quit)
			}
		})
	}
}

func TestReadCommandsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var got lines
	if err := ReadCommands(ctx, strings.NewReader("E = SPACE\n"), &got, nil); err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no commands after cancel, got %q", got)
	}
}
