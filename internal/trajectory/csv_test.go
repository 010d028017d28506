package trajectory

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const validCSV = `timestamp,frame,marker_id,x,y,z,rx,ry,rz
0.0,0,1,0.1,0.2,0.3,0.01,0.02,0.03
0.033,1,1,0.11,0.2,0.3,0.01,0.02,0.03
0.033,1,2,1.5,0.0,2.0,0.0,0.0,0.0
`

func TestReadCSVValid(t *testing.T) {
	samples, err := ReadCSV(strings.NewReader(validCSV))
	if err != nil {
		t.Fatalf("ReadCSV returned error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[1].Frame != 1 || samples[1].MarkerID != 1 || samples[1].X != 0.11 {
		t.Errorf("sample 1 mismatch: %+v", samples[1])
	}
}

func TestReadCSVRejectsMissingColumn(t *testing.T) {
	data := "timestamp,frame,marker_id,x,y,z,rx,ry\n0,0,1,0,0,0,0,0\n"

	_, err := ReadCSV(strings.NewReader(data))
	if err == nil {
		t.Fatal("expected error for missing rz column")
	}
	var mre *MalformedRecordError
	if !errors.As(err, &mre) {
		t.Fatalf("expected MalformedRecordError, got %T: %v", err, err)
	}
	if mre.Line != 1 {
		t.Errorf("error line = %d, want 1 (header)", mre.Line)
	}
}

func TestReadCSVRejectsWrongColumnName(t *testing.T) {
	data := strings.Replace(validCSV, "marker_id", "marker", 1)

	_, err := ReadCSV(strings.NewReader(data))
	var mre *MalformedRecordError
	if !errors.As(err, &mre) {
		t.Fatalf("expected MalformedRecordError, got %T: %v", err, err)
	}
}

func TestReadCSVRejectsNonNumericValue(t *testing.T) {
	data := `timestamp,frame,marker_id,x,y,z,rx,ry,rz
0.0,0,1,0.1,0.2,0.3,0.01,0.02,0.03
0.033,one,1,0.1,0.2,0.3,0.01,0.02,0.03
`
	_, err := ReadCSV(strings.NewReader(data))
	var mre *MalformedRecordError
	if !errors.As(err, &mre) {
		t.Fatalf("expected MalformedRecordError, got %T: %v", err, err)
	}
	if mre.Line != 3 {
		t.Errorf("error line = %d, want 3", mre.Line)
	}
}

func TestReadCSVRejectsShortRow(t *testing.T) {
	data := `timestamp,frame,marker_id,x,y,z,rx,ry,rz
0.0,0,1,0.1
`
	_, err := ReadCSV(strings.NewReader(data))
	var mre *MalformedRecordError
	if !errors.As(err, &mre) {
		t.Fatalf("expected MalformedRecordError, got %T: %v", err, err)
	}
}

func TestReadCSVEmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	var mre *MalformedRecordError
	if !errors.As(err, &mre) {
		t.Fatalf("expected MalformedRecordError for empty input, got %T: %v", err, err)
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	in := []PoseSample{
		{Timestamp: 0, Frame: 0, MarkerID: 1, X: 0.125, Y: -2, Z: 3, RX: 0.5, RY: 0, RZ: -0.5},
		{Timestamp: 0.033, Frame: 1, MarkerID: 2, X: 1},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	out, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV returned error: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCSVFileAllOrNothing(t *testing.T) {
	store := NewStore()
	store.Append(PoseSample{MarkerID: 9})

	dir := t.TempDir()
	path := dir + "/bad.csv"
	bad := validCSV + "not,numeric,at,all,x,x,x,x,x\n"
	if err := writeTestFile(t, path, bad); err != nil {
		t.Fatal(err)
	}

	if err := LoadCSVFile(path, store); err == nil {
		t.Fatal("expected error for malformed file")
	}
	// The failed load must leave the store untouched.
	if _, err := store.SequenceFor(9); err != nil {
		t.Errorf("store contents replaced despite failed load: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("store length = %d, want 1", store.Len())
	}
}

func TestLoadCSVFileSortsInterleavedMarkers(t *testing.T) {
	data := `timestamp,frame,marker_id,x,y,z,rx,ry,rz
0.2,2,1,0,0,0,0,0,0
0.0,0,2,0,0,0,0,0,0
0.0,0,1,0,0,0,0,0,0
0.1,1,2,0,0,0,0,0,0
`
	dir := t.TempDir()
	path := dir + "/interleaved.csv"
	if err := writeTestFile(t, path, data); err != nil {
		t.Fatal(err)
	}

	store := NewStore()
	if err := LoadCSVFile(path, store); err != nil {
		t.Fatalf("LoadCSVFile returned error: %v", err)
	}

	for _, id := range []int{1, 2} {
		seq, err := store.SequenceFor(id)
		if err != nil {
			t.Fatalf("SequenceFor(%d): %v", id, err)
		}
		for i := 1; i < len(seq); i++ {
			if seq[i].Timestamp < seq[i-1].Timestamp {
				t.Errorf("marker %d not time-ordered after load", id)
			}
		}
	}
}

func TestWriteDerivedCSVNonFiniteCells(t *testing.T) {
	ds, err := Derive([]PoseSample{
		{Timestamp: 0, MarkerID: 1},
		{Timestamp: 1, MarkerID: 1, X: 1},
	}, SmoothingConfig{})
	if err != nil {
		t.Fatalf("Derive returned error: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteDerivedCSV(&buf, ds); err != nil {
		t.Fatalf("WriteDerivedCSV returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,marker_id,x,y,z,vx") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	// Row for index 0: every derivative column empty, no "NaN" text.
	if strings.Contains(lines[1], "NaN") || strings.Contains(lines[1], "Inf") {
		t.Errorf("non-finite values leaked into CSV: %s", lines[1])
	}
	if !strings.Contains(lines[1], ",,") {
		t.Errorf("expected empty cells for undefined derivatives: %s", lines[1])
	}
}

func writeTestFile(t *testing.T, path, content string) error {
	t.Helper()
	return os.WriteFile(path, []byte(content), 0644)
}
