package kmedoids

import "testing"

func TestNewMatrix(t *testing.T) {
	m := NewMatrix[float64](3, 2)
	if m.Rows() != 3 || m.Cols() != 2 {
		t.Fatalf("expected 3x2, got %dx%d", m.Rows(), m.Cols())
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 2; c++ {
			if m.At(r, c) != 0 {
				t.Errorf("expected zero-filled at (%d,%d), got %v", r, c, m.At(r, c))
			}
		}
	}
}

func TestMatrixSetAt(t *testing.T) {
	m := NewMatrix[float64](2, 2)
	m.Set(0, 1, 5)
	if m.At(0, 1) != 5 {
		t.Errorf("expected 5, got %v", m.At(0, 1))
	}
	if m.At(1, 0) != 0 {
		t.Errorf("expected other cells untouched, got %v", m.At(1, 0))
	}
}

func TestMatrixRowSetRow(t *testing.T) {
	m := NewMatrix[float64](2, 3)
	m.SetRow(1, []float64{1, 2, 3})
	row := m.Row(1)
	want := []float64{1, 2, 3}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %v, want %v", i, row[i], want[i])
		}
	}
	if m.At(0, 0) != 0 {
		t.Errorf("row 0 should be untouched")
	}
}

func TestNewMatrixFromRows(t *testing.T) {
	m, err := NewMatrixFromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	if err != nil {
		t.Fatalf("NewMatrixFromRows failed: %v", err)
	}
	if m.Rows() != 3 || m.Cols() != 2 {
		t.Fatalf("expected 3x2, got %dx%d", m.Rows(), m.Cols())
	}
	if m.At(2, 1) != 6 {
		t.Errorf("expected 6 at (2,1), got %v", m.At(2, 1))
	}
}

func TestNewMatrixFromRowsMismatchedLengths(t *testing.T) {
	_, err := NewMatrixFromRows([][]float64{{1, 2}, {3}})
	if err == nil {
		t.Fatal("expected error for mismatched row lengths")
	}
}

func TestNewMatrixFromRowsEmpty(t *testing.T) {
	_, err := NewMatrixFromRows([][]float64{})
	if err == nil {
		t.Fatal("expected error for no rows")
	}
}

func TestMatrixData(t *testing.T) {
	m := NewMatrix[float64](2, 2)
	m.Set(0, 0, 1)
	m.Set(1, 1, 4)
	data := m.Data()
	if len(data) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(data))
	}
	if data[0] != 1 || data[3] != 4 {
		t.Errorf("unexpected data view: %v", data)
	}
}

func TestMatrixFill(t *testing.T) {
	m := NewMatrix[float64](2, 2)
	m.Fill(7)
	m.Each(func(r, c int, v float64) {
		if v != 7 {
			t.Errorf("(%d,%d) = %v, want 7", r, c, v)
		}
	})
}

func TestMatrixArgMin(t *testing.T) {
	m := NewMatrix[float64](2, 2)
	m.Set(0, 0, 5)
	m.Set(0, 1, 3)
	m.Set(1, 0, 3)
	m.Set(1, 1, 9)
	row, col, val := m.ArgMin()
	if row != 0 || col != 1 || val != 3 {
		t.Errorf("expected tie-break to (0,1)=3, got (%d,%d)=%v", row, col, val)
	}
}

func TestMatrixArgMinPanicsOnEmpty(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on empty matrix")
		}
	}()
	m := NewMatrix[float64](0, 0)
	m.ArgMin()
}
