package dataset_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/hotel-reservation-prediction/internal/dataset"
	"github.com/yungbote/hotel-reservation-prediction/internal/testutil"
)

func mustRead(t *testing.T, body string) *dataset.Frame {
	t.Helper()
	f, err := dataset.ReadCSV(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return f
}

func TestReadCSVNamesBlankHeader(t *testing.T) {
	f := mustRead(t, ",Booking_ID,lead_time\n0,INN1,10\n1,INN2,20\n")
	cols := f.Columns()
	if cols[0] != "Unnamed: 0" {
		t.Fatalf("first column: want=%q got=%q", "Unnamed: 0", cols[0])
	}
	if f.Len() != 2 {
		t.Fatalf("rows: want=2 got=%d", f.Len())
	}
}

func TestDropIgnoresMissingColumns(t *testing.T) {
	f := mustRead(t, "a,b,c\n1,2,3\n")
	dropped := f.Drop("b", "Unnamed: 0")
	if len(dropped) != 1 || dropped[0] != "b" {
		t.Fatalf("dropped: want=[b] got=%v", dropped)
	}
	if got := strings.Join(f.Columns(), ","); got != "a,c" {
		t.Fatalf("columns: want=a,c got=%s", got)
	}
	if got := strings.Join(f.Row(0), ","); got != "1,3" {
		t.Fatalf("row: want=1,3 got=%s", got)
	}
}

func TestDropDuplicatesKeepsFirst(t *testing.T) {
	f := mustRead(t, "a,b\n1,x\n2,y\n1,x\n3,z\n2,y\n")
	if removed := f.DropDuplicates(); removed != 2 {
		t.Fatalf("removed: want=2 got=%d", removed)
	}
	col, _ := f.Column("a")
	if got := strings.Join(col, ","); got != "1,2,3" {
		t.Fatalf("order: want=1,2,3 got=%s", got)
	}
}

func TestSelectReordersAndErrors(t *testing.T) {
	f := mustRead(t, "a,b,c\n1,2,3\n")
	s, err := f.Select([]string{"c", "a"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got := strings.Join(s.Row(0), ","); got != "3,1" {
		t.Fatalf("row: want=3,1 got=%s", got)
	}
	if got := strings.Join(f.Columns(), ","); got != "a,b,c" {
		t.Fatalf("source mutated: %s", got)
	}
	if _, err := f.Select([]string{"zzz"}); err == nil {
		t.Fatalf("Select(unknown): expected error")
	}
}

func TestMatrixAndFromMatrix(t *testing.T) {
	f := mustRead(t, "x1,x2,y\n1.5,2,0\n3,4.25,1\n")
	X, err := f.Matrix([]string{"x1", "x2"})
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	y, err := f.Labels("y")
	if err != nil {
		t.Fatalf("Labels: %v", err)
	}
	if X[1][1] != 4.25 || y[1] != 1 {
		t.Fatalf("values: X=%v y=%v", X, y)
	}
	g, err := dataset.FromMatrix([]string{"x1", "x2"}, X, "y", y)
	if err != nil {
		t.Fatalf("FromMatrix: %v", err)
	}
	var buf bytes.Buffer
	if err := g.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got := buf.String(); got != "x1,x2,y\n1.5,2,0\n3,4.25,1\n" {
		t.Fatalf("csv: got=%q", got)
	}
}

func TestMatrixRejectsNonNumeric(t *testing.T) {
	f := mustRead(t, "x,y\nabc,1\n")
	if _, err := f.Matrix([]string{"x"}); err == nil {
		t.Fatalf("Matrix(non numeric): expected error")
	}
}

func TestTrainTestSplitSizes(t *testing.T) {
	f := mustRead(t, string(testutil.BookingsCSV(testutil.BookingOptions{Rows: 1000, Seed: 7})))
	cases := []struct {
		trainRatio  float64
		train, test int
	}{
		{0.7, 700, 300},
		{0.8, 800, 200},
	}
	for _, tc := range cases {
		train, test, err := dataset.TrainTestSplit(f, 1-tc.trainRatio, 42)
		if err != nil {
			t.Fatalf("TrainTestSplit: %v", err)
		}
		if train.Len() != tc.train || test.Len() != tc.test {
			t.Fatalf("ratio %v: want=%d/%d got=%d/%d", tc.trainRatio, tc.train, tc.test, train.Len(), test.Len())
		}
	}
}

func TestTrainTestSplitDisjointAndDeterministic(t *testing.T) {
	body := string(testutil.BookingsCSV(testutil.BookingOptions{Rows: 250, Seed: 3}))
	f := mustRead(t, body)
	train, test, err := dataset.TrainTestSplit(f, 0.2, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit: %v", err)
	}
	ids := map[string]bool{}
	for _, fr := range []*dataset.Frame{train, test} {
		col, _ := fr.Column("Booking_ID")
		for _, id := range col {
			if ids[id] {
				t.Fatalf("row %s appears in both partitions", id)
			}
			ids[id] = true
		}
	}
	if len(ids) != f.Len() {
		t.Fatalf("union: want=%d got=%d", f.Len(), len(ids))
	}

	dir := t.TempDir()
	write := func(name string) string {
		again := mustRead(t, body)
		tr, te, err := dataset.TrainTestSplit(again, 0.2, 42)
		if err != nil {
			t.Fatalf("TrainTestSplit: %v", err)
		}
		var a, b bytes.Buffer
		_ = tr.WriteCSV(&a)
		_ = te.WriteCSV(&b)
		if err := tr.WriteCSVFile(filepath.Join(dir, name, "train.csv")); err != nil {
			t.Fatalf("WriteCSVFile: %v", err)
		}
		return a.String() + "\x00" + b.String()
	}
	if write("one") != write("two") {
		t.Fatalf("same seed produced different partitions")
	}
}

func TestTrainTestSplitRejectsBadRatio(t *testing.T) {
	f := mustRead(t, "a\n1\n2\n")
	for _, ts := range []float64{0, 1, -0.5} {
		if _, _, err := dataset.TrainTestSplit(f, ts, 1); err == nil {
			t.Fatalf("test size %v: expected error", ts)
		}
	}
}
