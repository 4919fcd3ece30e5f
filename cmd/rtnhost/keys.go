package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-rtneural/plugin"
	"golang.org/x/term"
)

// applyKey maps a key press to a control change. It reports whether the
// key asks to quit.
func applyKey(key byte, ctl plugin.Controls, models int) (plugin.Controls, bool) {
	switch key {
	case 'q', 'Q', 3: // Ctrl-C arrives as a byte in raw mode.
		return ctl, true
	case 'n':
		if models > 0 {
			ctl.ModelIndex = (ctl.ModelIndex + 1) % models
		}
	case 'p':
		if models > 0 {
			if ctl.ModelIndex <= 0 {
				ctl.ModelIndex = models - 1
			} else {
				ctl.ModelIndex--
			}
		}
	case 'b':
		ctl.NetBypass = !ctl.NetBypass
	case 'e':
		ctl.Enabled = !ctl.Enabled
	case 't':
		ctl.EQBypass = !ctl.EQBypass
	case 'd':
		ctl.DCBlockerOff = !ctl.DCBlockerOff
	case '+':
		ctl.MasterDB++
	case '-':
		ctl.MasterDB--
	}
	return ctl, false
}

func describeControls(ctl plugin.Controls) string {
	return fmt.Sprintf("model #%d  bypass=%t  enabled=%t  eq=%t  dc=%t  master=%+.0f dB",
		ctl.ModelIndex, ctl.NetBypass, ctl.Enabled, !ctl.EQBypass, !ctl.DCBlockerOff, ctl.MasterDB)
}

// runKeys reads single key presses from stdin in raw mode until quit,
// updating s. It returns when the user quits or stdin closes.
func runKeys(s *Streamer, models int, status io.Writer) error {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer func() { _ = term.Restore(fd, old) }()
	}

	fmt.Fprint(status, "keys: n/p model  b bypass  e enable  t tone  d dc  +/- master  q quit\r\n")
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if n == 0 {
			continue
		}
		ctl, quit := applyKey(buf[0], s.Controls(), models)
		if quit {
			return nil
		}
		s.SetControls(ctl)
		fmt.Fprintf(status, "%s\r\n", describeControls(ctl))
	}
}
