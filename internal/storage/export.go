package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/physim/internal/linalg"
)

type ExportData struct {
	RunMetadata
	Steps     int             `json:"steps"`
	Times     []float64       `json:"times"`
	Positions [][]linalg.Vec3 `json:"positions"`
}

// ExportJSON writes a run's metadata and trajectory as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	traj, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Steps:       len(traj.Times),
		Times:       traj.Times,
		Positions:   traj.Positions,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
