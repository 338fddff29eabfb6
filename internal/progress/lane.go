package progress

import (
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

// LabelWidth is the fixed number of characters every lane label occupies,
// so that bars line up across lanes.
const LabelWidth = 35

// PendingLabel is shown on a lane that is not downloading anything.
const PendingLabel = "pending"

// FormatLabel truncates s to LabelWidth characters, or pads it with
// trailing spaces up to LabelWidth. A string of exactly LabelWidth
// characters is returned unchanged.
func FormatLabel(s string) string {
	n := utf8.RuneCountInString(s)
	switch {
	case n > LabelWidth:
		return string([]rune(s)[:LabelWidth])
	case n < LabelWidth:
		return s + strings.Repeat(" ", LabelWidth-n)
	default:
		return s
	}
}

// Lane is one reusable progress slot. Its setters must only be called by the
// worker that currently holds it; the hand-off through the pool orders one
// holder's writes before the next holder's.
type Lane struct {
	id       int
	sink     Sink
	label    string
	position int64
	total    int64
	finished bool

	held atomic.Bool
}

func newLane(id int, sink Sink) *Lane {
	l := &Lane{id: id, sink: sink, label: FormatLabel(PendingLabel)}
	l.emit()
	return l
}

// ID returns the lane number, stable across reuses.
func (l *Lane) ID() int { return l.id }

func (l *Lane) Label() string   { return l.label }
func (l *Lane) Position() int64 { return l.position }
func (l *Lane) Total() int64    { return l.total }
func (l *Lane) Finished() bool  { return l.finished }

// SetLabel sets the lane label, formatted to LabelWidth.
func (l *Lane) SetLabel(s string) {
	l.label = FormatLabel(s)
	l.emit()
}

// SetTotal records the expected number of bytes. Zero means unknown.
func (l *Lane) SetTotal(n int64) {
	if n < 0 {
		n = 0
	}
	l.total = n
	l.emit()
}

// SetPosition records the number of bytes transferred so far.
func (l *Lane) SetPosition(n int64) {
	l.position = n
	l.emit()
}

// Advance adds n bytes to the position.
func (l *Lane) Advance(n int64) {
	l.SetPosition(l.position + n)
}

func (l *Lane) reset() {
	l.label = FormatLabel(PendingLabel)
	l.position = 0
	l.total = 0
	l.emit()
}

func (l *Lane) finish() {
	l.finished = true
	l.emit()
}

func (l *Lane) emit() {
	l.sink.Send(LaneMsg{
		Lane:     l.id,
		Label:    l.label,
		Position: l.position,
		Total:    l.total,
		Finished: l.finished,
	})
}
