package logger

import (
	"log"
	"strings"
	"sync"
)

// Protocol trace: an optional side channel that records every command
// written to the terminal and every snapshot the bridge failed to decode.
// Invaluable when debugging the MQL side, too noisy for the main log.

var (
	traceMu  sync.Mutex
	traceLog *log.Logger
)

// SetTraceWriter enables protocol tracing to w. Pass nil to disable.
func SetTraceWriter(w traceWriter) {
	traceMu.Lock()
	defer traceMu.Unlock()
	if w == nil {
		traceLog = nil
		return
	}
	traceLog = log.New(w, "", log.LstdFlags|log.Lmicroseconds)
}

type traceWriter interface {
	Write(p []byte) (n int, err error)
}

func emitTrace(kind, target, body string) {
	traceMu.Lock()
	l := traceLog
	traceMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(kind)
	b.WriteString("] ")
	b.WriteString(target)
	if body != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(body, "\n"))
	}
	l.Print(b.String())
}

// TraceCommand records a command payload after it was claimed into a slot.
func TraceCommand(slotFile, content string) {
	emitTrace("COMMAND", slotFile, content)
}

// TraceSnapshotError records a snapshot file the bridge read but refused.
func TraceSnapshotError(file string, err error) {
	if err == nil {
		return
	}
	emitTrace("SNAPSHOT", file, err.Error())
}
