package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

type ExportData struct {
	Metadata
	Source string      `json:"source"`
	Header []string    `json:"header,omitempty"`
	Values [][]float64 `json:"values,omitempty"`
}

// Export writes an artifact with its source and values as one JSON
// document.
func (s *Store) Export(w io.Writer, id string) error {
	meta, err := s.Load(id)
	if err != nil {
		return err
	}
	src, err := s.LoadSource(id)
	if err != nil {
		return err
	}
	vals, err := s.LoadValues(id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(ExportData{
		Metadata: *meta,
		Source:   src,
		Header:   vals.Header,
		Values:   vals.Rows,
	}), "encode export")
}

func (s *Store) ExportFile(path, id string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export")
	}
	defer file.Close()
	return s.Export(file, id)
}
