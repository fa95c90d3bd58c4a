// Package stream turns a tree walk into a sequence of versioned events.
package stream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/treetext/internal/tree"
)

const (
	warningLevel = "warning"

	// diagnosticIndent holds the characters of the tree prefix in front of a diagnostic.
	diagnosticIndent = "│ "
)

// TreeWalker produces tree lines. *tree.Walker satisfies it.
type TreeWalker interface {
	Walk(ctx context.Context, configuration tree.Configuration, handler func(tree.Line) error) error
}

type TreeOptions struct {
	Configuration tree.Configuration
}

type emitter struct {
	ctx     context.Context
	out     chan<- Event
	command string
}

func newEmitter(ctx context.Context, out chan<- Event, command string) *emitter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &emitter{ctx: ctx, out: out, command: command}
}

func (e *emitter) send(event Event) error {
	if e.out == nil {
		return fmt.Errorf("stream: event channel is nil")
	}
	event.Version = SchemaVersion
	if event.Command == "" {
		event.Command = e.command
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	select {
	case <-e.ctx.Done():
		return e.ctx.Err()
	case e.out <- event:
		return nil
	}
}

func (e *emitter) warn(path, message string) error {
	if message == "" {
		return nil
	}
	return e.send(Event{
		Kind:    EventKindWarning,
		Path:    path,
		Message: &LogEvent{Level: warningLevel, Message: message},
	})
}

type summaryTracker struct {
	directories int
	files       int
	errors      int
}

func (tracker *summaryTracker) add(line tree.Line) {
	switch line.Kind {
	case tree.LineKindEntry:
		if line.IsDir {
			tracker.directories++
			return
		}
		tracker.files++
	case tree.LineKindError:
		tracker.errors++
	}
}

func (tracker *summaryTracker) summary() *SummaryEvent {
	return &SummaryEvent{
		Directories: tracker.directories,
		Files:       tracker.files,
		Errors:      tracker.errors,
	}
}

// StreamTree walks the configured tree and sends start, one line event per
// rendered line, a warning after every unreadable directory, then summary and
// done. Start accompanies the root line, so a configuration rejected before
// any output yields only the error event. A walk failure is sent as an error
// event and returned.
func StreamTree(ctx context.Context, walker TreeWalker, opts TreeOptions, out chan<- Event) error {
	if walker == nil {
		return fmt.Errorf("stream: tree walker is nil")
	}
	root := opts.Configuration.Root

	emitter := newEmitter(ctx, out, CommandTree)
	started := false
	tracker := &summaryTracker{}
	handler := func(line tree.Line) error {
		if !started {
			started = true
			if err := emitter.send(Event{Kind: EventKindStart, Path: root}); err != nil {
				return err
			}
		}
		tracker.add(line)
		if err := emitter.send(Event{
			Kind: EventKindLine,
			Path: line.RelativePath,
			Line: &LineEvent{
				Kind:   string(line.Kind),
				Text:   line.Text,
				Name:   line.Name,
				Path:   line.RelativePath,
				Depth:  line.Depth,
				IsDir:  line.IsDir,
				IsLast: line.IsLast,
			},
		}); err != nil {
			return err
		}
		if line.Kind == tree.LineKindError {
			return emitter.warn(line.RelativePath, strings.TrimLeft(line.Text, diagnosticIndent))
		}
		return nil
	}

	if walkErr := walker.Walk(emitter.ctx, opts.Configuration, handler); walkErr != nil {
		_ = emitter.send(Event{Kind: EventKindError, Path: root, Err: &ErrorEvent{Message: walkErr.Error()}})
		return walkErr
	}

	if err := emitter.send(Event{Kind: EventKindSummary, Path: root, Summary: tracker.summary()}); err != nil {
		return err
	}
	return emitter.send(Event{Kind: EventKindDone, Path: root})
}
