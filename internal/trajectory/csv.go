package trajectory

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// csvColumns is the canonical persisted trajectory schema. Readers require
// this exact column set in this order; extra or reordered columns are a
// format error.
var csvColumns = []string{"timestamp", "frame", "marker_id", "x", "y", "z", "rx", "ry", "rz"}

// derivedColumns is the secondary export schema for derived metrics.
var derivedColumns = []string{
	"timestamp", "marker_id", "x", "y", "z",
	"vx", "vy", "vz", "speed",
	"ax", "ay", "az", "acceleration",
	"distance", "cumulative_distance",
	"rx_deg", "ry_deg", "rz_deg",
	"omega_x", "omega_y", "omega_z", "angular_speed",
}

// ReadCSV parses the canonical trajectory CSV. It fails with a
// MalformedRecordError on a missing/extra column, a short row, or a
// non-numeric value; on failure no samples are returned, so callers get
// all-or-nothing semantics for free.
func ReadCSV(r io.Reader) ([]PoseSample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &MalformedRecordError{Line: 1, Reason: "missing header row"}
	}
	if err != nil {
		return nil, &MalformedRecordError{Line: 1, Reason: err.Error()}
	}
	if len(header) != len(csvColumns) {
		return nil, &MalformedRecordError{
			Line:   1,
			Reason: fmt.Sprintf("expected %d columns %v, got %d", len(csvColumns), csvColumns, len(header)),
		}
	}
	for i, col := range csvColumns {
		if header[i] != col {
			return nil, &MalformedRecordError{
				Line:   1,
				Reason: fmt.Sprintf("column %d: expected %q, got %q", i+1, col, header[i]),
			}
		}
	}

	var samples []PoseSample
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &MalformedRecordError{Line: line, Reason: err.Error()}
		}

		s, err := parseRow(row, line)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	return samples, nil
}

func parseRow(row []string, line int) (PoseSample, error) {
	var s PoseSample

	parseFloat := func(col int) (float64, error) {
		v, err := strconv.ParseFloat(row[col], 64)
		if err != nil {
			return 0, &MalformedRecordError{
				Line:   line,
				Reason: fmt.Sprintf("column %q: non-numeric value %q", csvColumns[col], row[col]),
			}
		}
		return v, nil
	}
	parseInt := func(col int) (int, error) {
		v, err := strconv.Atoi(row[col])
		if err != nil {
			return 0, &MalformedRecordError{
				Line:   line,
				Reason: fmt.Sprintf("column %q: non-integer value %q", csvColumns[col], row[col]),
			}
		}
		return v, nil
	}

	var err error
	if s.Timestamp, err = parseFloat(0); err != nil {
		return s, err
	}
	if s.Frame, err = parseInt(1); err != nil {
		return s, err
	}
	if s.MarkerID, err = parseInt(2); err != nil {
		return s, err
	}
	if s.X, err = parseFloat(3); err != nil {
		return s, err
	}
	if s.Y, err = parseFloat(4); err != nil {
		return s, err
	}
	if s.Z, err = parseFloat(5); err != nil {
		return s, err
	}
	if s.RX, err = parseFloat(6); err != nil {
		return s, err
	}
	if s.RY, err = parseFloat(7); err != nil {
		return s, err
	}
	if s.RZ, err = parseFloat(8); err != nil {
		return s, err
	}
	return s, nil
}

// LoadCSVFile reads the canonical trajectory CSV at path and bulk-loads it
// into the store. The load is all-or-nothing: on any malformed record the
// store is left untouched.
func LoadCSVFile(path string, store *Store) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trajectory csv: %w", err)
	}
	defer f.Close()

	samples, err := ReadCSV(f)
	if err != nil {
		return err
	}
	store.LoadBulk(samples)
	return nil
}

// WriteCSV writes samples in the canonical trajectory schema.
func WriteCSV(w io.Writer, samples []PoseSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			formatFloat(s.Timestamp),
			strconv.Itoa(s.Frame),
			strconv.Itoa(s.MarkerID),
			formatFloat(s.X), formatFloat(s.Y), formatFloat(s.Z),
			formatFloat(s.RX), formatFloat(s.RY), formatFloat(s.RZ),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDerivedCSV writes derived metrics for one or more markers to the
// secondary analysis schema. Non-finite values are written as empty cells.
func WriteDerivedCSV(w io.Writer, series ...*DerivedSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(derivedColumns); err != nil {
		return err
	}
	for _, ds := range series {
		for i := range ds.Points {
			p := &ds.Points[i]
			row := []string{
				formatFloat(p.Timestamp),
				strconv.Itoa(ds.MarkerID),
				formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z),
				formatFloat(p.VX), formatFloat(p.VY), formatFloat(p.VZ), formatFloat(p.Speed),
				formatFloat(p.AX), formatFloat(p.AY), formatFloat(p.AZ), formatFloat(p.Acceleration),
				formatFloat(p.Distance), formatFloat(p.CumulativeDistance),
				formatFloat(p.RXDeg), formatFloat(p.RYDeg), formatFloat(p.RZDeg),
				formatFloat(p.OmegaX), formatFloat(p.OmegaY), formatFloat(p.OmegaZ), formatFloat(p.AngularSpeed),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatFloat renders a float for CSV output; non-finite values become
// empty cells so spreadsheet tools and the loader's numeric parsing are
// never fed Inf/NaN text.
func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
