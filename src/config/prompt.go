package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/iafilius/ReflowMonitor/src/types"
)

// StdinIsTerminal reports whether prompting makes sense.
func StdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// PromptProfile asks for every profile value still unset, in the order the oven
// operator is used to: reflow temp, reflow time, soak temp, soak time. Invalid
// answers are asked again.
func PromptProfile(in io.Reader, out io.Writer, p *types.Profile) error {
	sc := bufio.NewScanner(in)
	fields := []struct {
		label string
		dst   *int
	}{
		{"reflow temp", &p.ReflowTemp},
		{"reflow time", &p.ReflowTime},
		{"soak temp", &p.SoakTemp},
		{"soak time", &p.SoakTime},
	}
	for _, f := range fields {
		for *f.dst <= 0 {
			fmt.Fprintf(out, "%s: ", f.label)
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return fmt.Errorf("read %s: %w", f.label, err)
				}
				return errors.New("input closed before profile was complete")
			}
			n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
			if err != nil || n <= 0 {
				fmt.Fprintf(out, "%s must be a positive integer\n", f.label)
				continue
			}
			*f.dst = n
		}
	}
	return nil
}
