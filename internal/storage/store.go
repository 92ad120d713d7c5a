package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/san-kum/physim/internal/config"
	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

// ErrMalformed is returned when a stored trajectory cannot be parsed.
var ErrMalformed = errors.New("storage: malformed trajectory")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Frames     int                `json:"frames"`
	FramesRun  int                `json:"frames_run"`
	Iterations int                `json:"iterations"`
	Entities   int                `json:"entities"`
	Metrics    map[string]float64 `json:"metrics"`
	Errors     []string           `json:"errors,omitempty"`
}

// Trajectory is the stored position history of every tracked entity.
type Trajectory struct {
	Times     []float64
	Positions [][]linalg.Vec3 // [frame][entity]
}

// Series returns one coordinate of one entity over time.
func (t *Trajectory) Series(entity, axis int) []float64 {
	out := make([]float64, 0, len(t.Positions))
	for _, frame := range t.Positions {
		if entity < len(frame) {
			out = append(out, frame[entity][axis])
		}
	}
	return out
}

func (t *Trajectory) Entities() int {
	if len(t.Positions) == 0 {
		return 0
	}
	return len(t.Positions[0])
}

// Save writes the metadata and trajectory of a run into a new run
// directory and returns its id.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID, runDir, err := s.newRunDir(cfg.Scenario, now)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   cfg.Scenario,
		Timestamp:  now,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Frames:     cfg.Frames,
		FramesRun:  result.FramesRun,
		Iterations: cfg.Iterations,
		Metrics:    result.Metrics,
	}
	if len(result.Snapshots) > 0 {
		meta.Entities = result.Snapshots[0].Len()
	}
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteTrajectory(csvFile, result.Snapshots); err != nil {
		return "", err
	}
	return runID, nil
}

// newRunDir creates <base>/<scenario>_<unix>, adding a suffix when a run
// with the same id already exists.
func (s *Store) newRunDir(scenario string, now time.Time) (string, string, error) {
	base := fmt.Sprintf("%s_%d", scenario, now.Unix())
	runID := base
	for i := 2; ; i++ {
		dir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return runID, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

// WriteTrajectory writes time followed by x, y, z of every entity, one
// row per snapshot.
func WriteTrajectory(w io.Writer, snapshots []sim.Snapshot) error {
	cw := csv.NewWriter(w)
	if len(snapshots) == 0 {
		cw.Flush()
		return cw.Error()
	}

	header := []string{"time"}
	for i := 0; i < snapshots[0].Len(); i++ {
		header = append(header, fmt.Sprintf("e%d_x", i), fmt.Sprintf("e%d_y", i), fmt.Sprintf("e%d_z", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, snap := range snapshots {
		row := []string{strconv.FormatFloat(snap.Time, 'f', 6, 64)}
		for _, p := range snap.Positions {
			for _, v := range p {
				row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortStableFunc(runs, func(a, b RunMetadata) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// OpenTrajectory returns the raw trajectory CSV of a run.
func (s *Store) OpenTrajectory(runID string) (*os.File, error) {
	return os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
}

func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	file, err := s.OpenTrajectory(runID)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	traj := &Trajectory{}
	if len(records) < 2 {
		return traj, nil
	}
	if (len(records[0])-1)%3 != 0 {
		return nil, fmt.Errorf("%w: %d columns", ErrMalformed, len(records[0]))
	}
	entities := (len(records[0]) - 1) / 3

	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, i+1, err)
			}
			vals[j] = v
		}

		frame := make([]linalg.Vec3, entities)
		for e := range frame {
			frame[e] = linalg.Vec3{vals[1+3*e], vals[2+3*e], vals[3+3*e]}
		}
		traj.Times = append(traj.Times, vals[0])
		traj.Positions = append(traj.Positions, frame)
	}
	return traj, nil
}
