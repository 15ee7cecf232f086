package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/handiism/ingenuity-dl/internal/download"
	"github.com/handiism/ingenuity-dl/internal/model"
)

func run(r *Renderer, events ...download.ProgressEvent) {
	for _, e := range events {
		r.Handle(e)
	}
	r.Close()
}

func TestRenderer_Steps(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)

	run(r,
		download.ProgressEvent{Kind: download.EventStep, Step: 1, Steps: 4, Message: "Retrieving latest sol"},
		download.ProgressEvent{Kind: download.EventSol, Sol: 54, Message: "54"},
		download.ProgressEvent{Kind: download.EventStep, Step: 2, Steps: 4, Message: "Retrieving image data for sol 54"},
		download.ProgressEvent{Kind: download.EventLog, Level: download.LevelInfo, Message: "Found 2 images"},
		download.ProgressEvent{Kind: download.EventStep, Step: 3, Steps: 4, Message: "Downloading 2 images"},
		download.ProgressEvent{Kind: download.EventDownloaded, Level: download.LevelVerbose, Current: 1, Total: 2, Message: "Downloaded 1/2"},
		download.ProgressEvent{Kind: download.EventDownloaded, Level: download.LevelVerbose, Current: 2, Total: 2, Message: "Downloaded 2/2"},
	)

	out := buf.String()
	assert.Contains(t, out, "[1/4]")
	assert.Contains(t, out, "Retrieving latest sol ... ")
	assert.Contains(t, out, "54\n")
	assert.Contains(t, out, "[2/4]")
	assert.Contains(t, out, "Found 2 images\n")
	assert.Contains(t, out, "Downloading 2 images ... ")
	assert.Contains(t, out, "2/2\n")
	assert.NotContains(t, out, "Downloaded 1/2")
}

func TestRenderer_ExplicitSolFound(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)

	run(r,
		download.ProgressEvent{Kind: download.EventStep, Step: 1, Steps: 4, Message: "Checking sol 54"},
		download.ProgressEvent{Kind: download.EventSol, Sol: model.Sol(54), Message: "found!"},
	)

	assert.Contains(t, buf.String(), "Checking sol 54 ... ")
	assert.Contains(t, buf.String(), "found!\n")
}

func TestRenderer_Verbose(t *testing.T) {
	tests := []struct {
		verbose bool
		shown   bool
	}{
		{false, false},
		{true, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		r := NewRenderer(&buf, tt.verbose)

		run(r,
			download.ProgressEvent{Kind: download.EventLog, Level: download.LevelVerbose, Message: "cache hit"},
			download.ProgressEvent{Kind: download.EventEncoded, Level: download.LevelVerbose, Current: 1, Total: 3, Message: "Encoded frame 1/3"},
		)

		assert.Equal(t, tt.shown, bytes.Contains(buf.Bytes(), []byte("cache hit")), "verbose=%v", tt.verbose)
		assert.Equal(t, tt.shown, bytes.Contains(buf.Bytes(), []byte("Encoded frame 1/3")), "verbose=%v", tt.verbose)
	}
}

func TestRenderer_NotTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestErrorf(t *testing.T) {
	var buf bytes.Buffer
	Errorf(&buf, "no data from sol %d\n", 9999)
	assert.Contains(t, buf.String(), "Error: ")
	assert.Contains(t, buf.String(), "no data from sol 9999\n")
}
