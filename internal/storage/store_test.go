package storage

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

const source = "// Code generated by dynsym. DO NOT EDIT.\n\npackage generated\n\nfunc RHS(out, u, p []float64, t float64) {\n\tout[0] = u[1]\n}\n"

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	values := &Values{
		Header: []string{"theta", "out0"},
		Rows:   [][]float64{{0, 0.5}, {0.25, -1.5e-3}},
	}
	id, err := st.Save(Metadata{
		Model:    "pendulum",
		Kind:     "function",
		Function: "RHS",
		Target:   "go",
		Rows:     2,
		Cols:     1,
		Defaults: map[string]float64{"g": 9.81},
	}, source, values)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(id, "pendulum_function_") {
		t.Errorf("unexpected id %s", id)
	}

	meta, err := st.Load(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "pendulum" {
		t.Errorf("expected model 'pendulum', got '%s'", meta.Model)
	}
	if meta.SourceBytes != len(source) {
		t.Errorf("expected %d source bytes, got %d", len(source), meta.SourceBytes)
	}
	if meta.Defaults["g"] != 9.81 {
		t.Errorf("expected g 9.81, got %f", meta.Defaults["g"])
	}

	src, err := st.LoadSource(id)
	if err != nil {
		t.Fatalf("load source failed: %v", err)
	}
	if src != source {
		t.Errorf("source mismatch:\n%s", src)
	}

	got, err := st.LoadValues(id)
	if err != nil {
		t.Fatalf("load values failed: %v", err)
	}
	if diff := cmp.Diff(values, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveIsContentAddressed(t *testing.T) {
	st := New(t.TempDir())
	meta := Metadata{Model: "lorenz", Kind: "jacobian", Function: "Jacobian"}

	a, err := st.Save(meta, source, nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	b, err := st.Save(meta, source, nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if a != b {
		t.Errorf("expected identical ids, got %s and %s", a, b)
	}
	c, err := st.Save(meta, source+"\n", nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if c == a {
		t.Error("expected a new id for different source")
	}

	vals, err := st.LoadValues(a)
	if err != nil {
		t.Fatalf("load values failed: %v", err)
	}
	if len(vals.Rows) != 0 {
		t.Errorf("expected no values, got %d rows", len(vals.Rows))
	}
}

func TestList(t *testing.T) {
	st := New(t.TempDir())
	if runs, err := st.List(); err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v, %v", runs, err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, kind := range []string{"function", "jacobian"} {
		meta := Metadata{Model: "lorenz", Kind: kind, Function: "F", Timestamp: base.Add(time.Duration(i) * time.Hour)}
		if _, err := st.Save(meta, source, nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	arts, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(arts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(arts))
	}
	if arts[0].Kind != "jacobian" {
		t.Errorf("expected newest first, got %s", arts[0].Kind)
	}
}

func TestLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Load("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	id, err := st.Save(Metadata{Model: "m", Kind: "function", Function: "RHS"}, source,
		&Values{Header: []string{"x"}, Rows: [][]float64{{1}, {2}}})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var buf bytes.Buffer
	if err := st.Export(&buf, id); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if data.ID != id || data.Source != source {
		t.Errorf("unexpected export %+v", data.Metadata)
	}
	if len(data.Values) != 2 || data.Values[1][0] != 2 {
		t.Errorf("unexpected values %v", data.Values)
	}

	if err := st.ExportFile(filepath.Join(dir, "out.json"), id); err != nil {
		t.Fatalf("export file failed: %v", err)
	}
}
