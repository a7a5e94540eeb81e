package errors

import (
	"fmt"
	"io"
	"strings"
)

const (
	ansiRed   = "\x1b[31m"
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

// DisplayError prints err to w in a user-friendly format. Eval errors get
// their script stack printed below the message, indented.
func DisplayError(w io.Writer, err error, color bool) {
	if err == nil {
		return
	}

	kind := KindOf(err)
	msg := err.Error()
	var se StackError
	if As(err, &se) {
		msg = se.Message()
	}

	header := fmt.Sprintf("%s Error: %s", kind, msg)
	if kind == "" {
		header = "Error: " + msg
	}
	if color {
		header = ansiRed + header + ansiReset
	}
	fmt.Fprintln(w, header)

	var ev *EvalError
	if !As(err, &ev) || ev.Stack == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(ev.Stack, "\n"), "\n") {
		line = strings.TrimSpace(line)
		// The first stack line usually repeats the message.
		if line == "" || (ev.Msg != "" && strings.HasSuffix(line, ev.Msg)) {
			continue
		}
		if color {
			line = ansiDim + line + ansiReset
		}
		fmt.Fprintf(w, "    %s\n", line)
	}
}
