package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/gearcount/internal/gear"
	"github.com/ayusman/gearcount/internal/settings"
)

// Inspection sources.
const (
	SourceCamera  = "camera"
	SourceStill   = "still"
	SourceAnalyze = "analyze"
)

// Tooth is one persisted tooth measurement with its anomaly flags.
type Tooth struct {
	gear.ToothMeasurement
	Anomaly gear.ToothAnomaly `json:"anomaly"`
}

// Inspection is a stored analysis of a single frame.
type Inspection struct {
	ID              string        `json:"id"`
	Source          string        `json:"source"`
	Outcome         gear.Outcome  `json:"outcome"`
	ToothCount      int           `json:"tooth_count"`
	AnomalyCount    int           `json:"anomaly_count"`
	Centroid        gear.Point2D  `json:"centroid"`
	ForegroundColor gear.RGBColor `json:"foreground_color"`
	Tolerance       int           `json:"tolerance"`
	ImagePath       string        `json:"image_path,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	Teeth           []Tooth       `json:"teeth,omitempty"`
}

// NewInspection builds an unsaved inspection from an analysis result.
func NewInspection(source string, s settings.Settings, r gear.Result) *Inspection {
	in := &Inspection{
		Source:          source,
		Outcome:         r.Outcome,
		ToothCount:      r.ToothCount(),
		AnomalyCount:    r.AnomalyCount(),
		Centroid:        r.Centroid.Exact,
		ForegroundColor: s.ForegroundColor,
		Tolerance:       s.Tolerance,
	}
	for i, m := range r.Teeth {
		t := Tooth{ToothMeasurement: m}
		if i < len(r.Anomalies) {
			t.Anomaly = r.Anomalies[i]
		}
		in.Teeth = append(in.Teeth, t)
	}
	return in
}

// InspectionRepository provides CRUD operations for inspections.
type InspectionRepository struct {
	db *sql.DB
}

// Inspections returns the inspection repository for this store.
func (s *Store) Inspections() *InspectionRepository {
	return &InspectionRepository{db: s.db}
}

// Create stores in and its teeth in one transaction. An empty ID is filled
// with a new UUID.
func (r *InspectionRepository) Create(in *Inspection) error {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO inspections (id, source, outcome, tooth_count, anomaly_count, centroid_x, centroid_y,
			foreground_color, tolerance, image_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Source, in.Outcome.String(), in.ToothCount, in.AnomalyCount, in.Centroid.X, in.Centroid.Y,
		in.ForegroundColor.Hex(), in.Tolerance, in.ImagePath, in.CreatedAt,
	)
	if err != nil {
		return err
	}

	if len(in.Teeth) > 0 {
		stmt, err := tx.Prepare(
			`INSERT INTO inspection_teeth (inspection_id, tooth_index, low_high_idx, high_low_idx,
				starting_angle, ending_angle, min_distance, max_distance, anomaly)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range in.Teeth {
			if _, err := stmt.Exec(in.ID, t.Index, t.LowHighIdx, t.HighLowIdx,
				t.StartingAngle, t.EndingAngle, t.MinDistance, t.MaxDistance, int(t.Anomaly)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

const inspectionColumns = `id, source, outcome, tooth_count, anomaly_count, centroid_x, centroid_y,
	foreground_color, tolerance, image_path, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanInspection(row scanner) (*Inspection, error) {
	in := &Inspection{}
	var outcome, color string
	err := row.Scan(&in.ID, &in.Source, &outcome, &in.ToothCount, &in.AnomalyCount,
		&in.Centroid.X, &in.Centroid.Y, &color, &in.Tolerance, &in.ImagePath, &in.CreatedAt)
	if err != nil {
		return nil, err
	}

	var ok bool
	if in.Outcome, ok = gear.ParseOutcome(outcome); !ok {
		return nil, fmt.Errorf("inspection %s: unknown outcome %q", in.ID, outcome)
	}
	if in.ForegroundColor, err = gear.ParseHexColor(color); err != nil {
		return nil, fmt.Errorf("inspection %s: %w", in.ID, err)
	}
	return in, nil
}

// GetByID retrieves an inspection with its teeth.
func (r *InspectionRepository) GetByID(id string) (*Inspection, error) {
	in, err := scanInspection(r.db.QueryRow(
		`SELECT `+inspectionColumns+` FROM inspections WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.Teeth, err = r.teeth(id); err != nil {
		return nil, err
	}
	return in, nil
}

func (r *InspectionRepository) teeth(id string) ([]Tooth, error) {
	rows, err := r.db.Query(
		`SELECT tooth_index, low_high_idx, high_low_idx, starting_angle, ending_angle,
			min_distance, max_distance, anomaly
		 FROM inspection_teeth WHERE inspection_id = ? ORDER BY tooth_index`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teeth []Tooth
	for rows.Next() {
		var t Tooth
		var anomaly int
		if err := rows.Scan(&t.Index, &t.LowHighIdx, &t.HighLowIdx, &t.StartingAngle, &t.EndingAngle,
			&t.MinDistance, &t.MaxDistance, &anomaly); err != nil {
			return nil, err
		}
		t.Anomaly = gear.ToothAnomaly(anomaly)
		teeth = append(teeth, t)
	}
	return teeth, rows.Err()
}

// List returns the most recent inspections first, without teeth. A limit
// <= 0 returns all of them.
func (r *InspectionRepository) List(limit int) ([]*Inspection, error) {
	query := `SELECT ` + inspectionColumns + ` FROM inspections ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Inspection
	for rows.Next() {
		in, err := scanInspection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Count returns the number of stored inspections.
func (r *InspectionRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM inspections`).Scan(&n)
	return n, err
}

// Delete removes an inspection and its teeth.
func (r *InspectionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM inspections WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
