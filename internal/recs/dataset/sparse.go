package dataset

import "sort"

// Entry is one non-zero cell handed to the CSR builder.
type Entry struct {
	Row, Col int
	Val      float64
}

// CSR is a compressed sparse row matrix. Fields are exported so snapshots
// gob-encode without custom marshaling.
type CSR struct {
	NumRows int
	NumCols int
	RowPtr  []int
	ColInd  []int
	Data    []float64
}

// NewCSR builds a CSR matrix from entries. Duplicate (row, col) pairs are
// overwritten by the last entry, never summed. Out-of-range entries are
// dropped.
func NewCSR(rows, cols int, entries []Entry) *CSR {
	type cell struct{ row, col int }
	dedup := make(map[cell]float64, len(entries))
	for _, e := range entries {
		if e.Row < 0 || e.Row >= rows || e.Col < 0 || e.Col >= cols {
			continue
		}
		dedup[cell{e.Row, e.Col}] = e.Val
	}

	cells := make([]cell, 0, len(dedup))
	for c := range dedup {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].row != cells[j].row {
			return cells[i].row < cells[j].row
		}
		return cells[i].col < cells[j].col
	})

	m := &CSR{
		NumRows: rows,
		NumCols: cols,
		RowPtr:  make([]int, rows+1),
		ColInd:  make([]int, 0, len(cells)),
		Data:    make([]float64, 0, len(cells)),
	}
	for _, c := range cells {
		m.RowPtr[c.row+1]++
		m.ColInd = append(m.ColInd, c.col)
		m.Data = append(m.Data, dedup[c])
	}
	for i := 1; i <= rows; i++ {
		m.RowPtr[i] += m.RowPtr[i-1]
	}
	return m
}

// NewIdentityCSR builds an n-by-n identity matrix, the conventional shape
// for a feature matrix when no explicit features exist.
func NewIdentityCSR(n int) *CSR {
	m := &CSR{
		NumRows: n,
		NumCols: n,
		RowPtr:  make([]int, n+1),
		ColInd:  make([]int, n),
		Data:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		m.RowPtr[i+1] = i + 1
		m.ColInd[i] = i
		m.Data[i] = 1
	}
	return m
}

// NNZ is the number of stored non-zero entries.
func (m *CSR) NNZ() int {
	return len(m.Data)
}

// Row returns the column indices and values of row i. The returned slices
// alias internal storage and must not be mutated.
func (m *CSR) Row(i int) (cols []int, vals []float64) {
	if i < 0 || i >= m.NumRows {
		return nil, nil
	}
	start, end := m.RowPtr[i], m.RowPtr[i+1]
	return m.ColInd[start:end], m.Data[start:end]
}

// At returns the value at (row, col), zero when not stored.
func (m *CSR) At(row, col int) float64 {
	cols, vals := m.Row(row)
	for k, c := range cols {
		if c == col {
			return vals[k]
		}
	}
	return 0
}
