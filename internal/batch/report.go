package batch

import (
	"os"
	"time"

	"colliderbake/internal/config"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// Result holds the outcome of processing one asset.
type Result struct {
	Path    string `json:"path"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Meshes  int    `json:"meshes,omitempty"`
	Boxes   int    `json:"boxes,omitempty"`
	Removed int    `json:"removed,omitempty"`
}

// Report summarizes one batch operation.
type Report struct {
	RunID      string          `json:"run_id"`
	Op         Op              `json:"op"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Settings   config.Settings `json:"settings"`
	Results    []Result        `json:"results"`
}

func newReport(op Op, s config.Settings) Report {
	return Report{
		RunID:     newRunID(),
		Op:        op,
		StartedAt: time.Now().UTC(),
		Settings:  s,
	}
}

func (r *Report) finish() {
	r.FinishedAt = time.Now().UTC()
}

// Succeeded returns how many assets were processed without error.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// Failed returns how many assets failed.
func (r Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Boxes returns the total number of generated boxes.
func (r Report) Boxes() int {
	n := 0
	for _, res := range r.Results {
		n += res.Boxes
	}
	return n
}

// WriteReport writes r as indented JSON to path.
func WriteReport(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.New("encoding report failed").Wrap(err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.New("writing report failed").
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}
