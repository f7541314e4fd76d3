package console

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Executor runs one command line and reports the outcome itself.
type Executor interface {
	Exec(line string)
}

// ReadCommands passes each line of r to ex until EOF, ctx is done or a QUIT
// line arrives. quit runs on QUIT only.
func ReadCommands(ctx context.Context, r io.Reader, ex Executor, quit func()) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "QUIT") {
			if quit != nil {
				quit()
			}
			return nil
		}
		ex.Exec(line)
	}
	return sc.Err()
}
