package pipeline

import (
	"fmt"
	"log"
	"time"
)

// Level classifies a progress line.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelOK    Level = "OK"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
	LevelStep  Level = "STEP"
)

// Event is one human-readable progress line of a run.
type Event struct {
	RunID   string    `json:"run_id"`
	Seq     int       `json:"seq"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s [%s] %s", e.Time.Format("15:04:05"), e.Level, e.Message)
}

// Sink receives events as they are produced.
type Sink func(Event)

type emitter struct {
	runID string
	seq   int
	sink  Sink
	now   func() time.Time
}

func (e *emitter) emit(level Level, format string, args ...interface{}) {
	e.seq++
	ev := Event{
		RunID:   e.runID,
		Seq:     e.seq,
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		Time:    e.now(),
	}
	log.Printf("[Pipeline] %s [%s] %s", e.runID, ev.Level, ev.Message)
	if e.sink != nil {
		e.sink(ev)
	}
}

func (e *emitter) info(format string, args ...interface{}) { e.emit(LevelInfo, format, args...) }
func (e *emitter) ok(format string, args ...interface{})   { e.emit(LevelOK, format, args...) }
func (e *emitter) warn(format string, args ...interface{}) { e.emit(LevelWarn, format, args...) }
func (e *emitter) fail(format string, args ...interface{}) { e.emit(LevelError, format, args...) }
func (e *emitter) step(format string, args ...interface{}) { e.emit(LevelStep, format, args...) }
