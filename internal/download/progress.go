package download

import (
	"github.com/handiism/ingenuity-dl/internal/model"
)

// TotalSteps is the number of numbered steps a Manager run reports.
const TotalSteps = 4

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

func (l ProgressLevel) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// EventKind tells a progress consumer which fields of a ProgressEvent are set.
type EventKind int

const (
	// EventLog carries only Message and Level.
	EventLog EventKind = iota
	// EventStep starts numbered step Step of Steps.
	EventStep
	// EventSol reports the resolved Sol.
	EventSol
	// EventDownloaded reports Current of Total images downloaded.
	EventDownloaded
	// EventEncoded reports Current of Total frames encoded.
	EventEncoded
)

// ProgressEvent represents a progress update.
type ProgressEvent struct {
	Kind    EventKind
	Level   ProgressLevel
	Message string

	Step  int
	Steps int

	Sol model.Sol

	Current int
	Total   int
}

// Fraction returns Current/Total, or 0 when Total is 0.
func (e ProgressEvent) Fraction() float64 {
	if e.Total <= 0 {
		return 0
	}
	return float64(e.Current) / float64(e.Total)
}

// ProgressFunc receives progress events. Calls are never concurrent.
type ProgressFunc func(ProgressEvent)
