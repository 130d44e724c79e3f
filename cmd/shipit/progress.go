package main

import (
	"fmt"
	"io"

	"github.com/fwojciec/shipit"
)

// progressPrinter writes one line per step and per tool call.
func progressPrinter(w io.Writer) func(shipit.Event) {
	return func(e shipit.Event) {
		switch e := e.(type) {
		case shipit.EventStepStart:
			fmt.Fprintf(w, "step %d/%d\n", e.Step, e.MaxSteps)
		case shipit.EventToolCallEnd:
			fmt.Fprintf(w, "  -> %s %s\n", e.Call.Name, e.Call.Arguments)
		case shipit.EventToolResult:
			mark := "ok"
			if e.IsError {
				mark = "failed"
			}
			fmt.Fprintf(w, "  <- %s %s\n", e.ToolName, mark)
		}
	}
}
