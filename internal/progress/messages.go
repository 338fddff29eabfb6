package progress

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Sink receives display updates. *tea.Program implements it.
type Sink interface {
	Send(msg tea.Msg)
}

type discard struct{}

func (discard) Send(tea.Msg) {}

// Discard is a Sink that drops every message.
var Discard Sink = discard{}

// Level indicates the severity/type of a log line.
type Level int

const (
	LevelInfo Level = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// LaneMsg carries the state of one lane after a change.
type LaneMsg struct {
	Lane     int
	Label    string
	Position int64
	Total    int64
	Finished bool
}

// AggregateMsg carries the overall completed/total count.
type AggregateMsg struct {
	Completed int64
	Total     int64
	Finished  bool
}

// LogMsg is a line printed above the bars.
type LogMsg struct {
	Time    time.Time
	Level   Level
	Message string
}

// DoneMsg is sent once, after the pool has been drained.
type DoneMsg struct{}
