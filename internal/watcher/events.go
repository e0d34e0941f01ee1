package watcher

import (
	"time"

	"github.com/alucardeht/prosaic/internal/ingest"
)

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

type FileEvent struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}

// merge folds a later event for the same path into an earlier one. A file
// created and then written is still new; a delete wins over everything.
func merge(prev, next FileEvent) FileEvent {
	if prev.Type == EventCreate && next.Type == EventModify {
		next.Type = EventCreate
	}
	return next
}

// ClassifyBatch picks the ingest priority for a flushed batch. A handful of
// files is someone editing a text by hand; a large batch is a bulk copy and
// can wait.
func ClassifyBatch(events []FileEvent) ingest.JobPriority {
	switch count := len(events); {
	case count > 10:
		return ingest.PriorityLow
	case count >= 3:
		return ingest.PriorityNormal
	default:
		return ingest.PriorityHigh
	}
}
