// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package cmx3600

// eventGrouper collects statements into events. Statements sharing a
// normalized edit number stay together; statements with an inferred edit
// number join whichever event is open. Completed events are passed to emit.
type eventGrouper struct {
	emit func([]Statement) error

	pending    []Statement
	current    string
	hasCurrent bool
}

func newEventGrouper(emit func([]Statement) error) *eventGrouper {
	return &eventGrouper{emit: emit}
}

// add appends stmt to the open event, or closes that event and opens a new
// one when the edit number changes or split is set.
func (g *eventGrouper) add(stmt Statement, split bool) error {
	info := stmt.Info()
	// With no edit number open yet, an explicit statement adopts whatever
	// notes are pending (leading notes, or a SPLIT and the lines after it).
	changed := !info.EditNumberInferred && g.hasCurrent &&
		info.NormalizedEditNumber() != g.current
	if !split && !changed {
		g.pending = append(g.pending, stmt)
		if !info.EditNumberInferred {
			g.current, g.hasCurrent = info.NormalizedEditNumber(), true
		}
		return nil
	}

	if err := g.flush(); err != nil {
		return err
	}
	g.pending = append(g.pending, stmt)
	if !info.EditNumberInferred {
		g.current, g.hasCurrent = info.NormalizedEditNumber(), true
	}
	return nil
}

// flush emits the open event, if any, and resets the grouper.
func (g *eventGrouper) flush() error {
	pending := g.pending
	g.pending = nil
	g.current, g.hasCurrent = "", false
	if len(pending) == 0 {
		return nil
	}
	return g.emit(pending)
}
