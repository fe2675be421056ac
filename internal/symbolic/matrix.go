package symbolic

import "strings"

type Index struct{ Row, Col int }

// Matrix is a dense row-major matrix of expressions.
type Matrix struct {
	Rows int
	Cols int
	Data []Expr
}

// NewMatrix returns a rows x cols matrix filled with the zero constant.
func NewMatrix(rows, cols int) *Matrix {
	m := &Matrix{Rows: rows, Cols: cols, Data: make([]Expr, rows*cols)}
	zero := Num(0)
	for i := range m.Data {
		m.Data[i] = zero
	}
	return m
}

func (m *Matrix) At(i, j int) Expr { return m.Data[i*m.Cols+j] }

func (m *Matrix) Set(i, j int, e Expr) { m.Data[i*m.Cols+j] = e }

func (m *Matrix) Row(i int) []Expr { return m.Data[i*m.Cols : (i+1)*m.Cols] }

// Sparsity lists the entries that are not structurally zero, row by row.
func (m *Matrix) Sparsity() []Index {
	var idx []Index
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			if !IsZero(m.At(i, j)) {
				idx = append(idx, Index{Row: i, Col: j})
			}
		}
	}
	return idx
}

func (m *Matrix) Map(fn func(Expr) Expr) *Matrix {
	out := &Matrix{Rows: m.Rows, Cols: m.Cols, Data: make([]Expr, len(m.Data))}
	for i, e := range m.Data {
		out.Data[i] = fn(e)
	}
	return out
}

func (m *Matrix) Equal(other *Matrix) bool {
	if m.Rows != other.Rows || m.Cols != other.Cols {
		return false
	}
	for i := range m.Data {
		if !Equal(m.Data[i], other.Data[i]) {
			return false
		}
	}
	return true
}

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.Rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		for j := 0; j < m.Cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.At(i, j).String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}
