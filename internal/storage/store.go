package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("storage: artifact not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return errors.Wrap(os.MkdirAll(s.baseDir, 0755), "create artifact dir")
}

// Metadata describes one generated artifact.
type Metadata struct {
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	Kind        string             `json:"kind"`
	Function    string             `json:"function"`
	Target      string             `json:"target"`
	Sparse      bool               `json:"sparse"`
	Rows        int                `json:"rows"`
	Cols        int                `json:"cols"`
	Timestamp   time.Time          `json:"timestamp"`
	Hash        string             `json:"hash"`
	SourceBytes int                `json:"source_bytes"`
	Defaults    map[string]float64 `json:"defaults,omitempty"`
}

// Values is a table of evaluated outputs, one row per sample.
type Values struct {
	Header []string
	Rows   [][]float64
}

// Save writes meta, the generated source and the optional values under a
// directory named after the model, kind and source hash. Saving identical
// source again replaces the earlier artifact.
func (s *Store) Save(meta Metadata, source string, values *Values) (string, error) {
	sum := xxhash.Sum64String(meta.Model + "\x00" + meta.Kind + "\x00" + source)
	meta.Hash = fmt.Sprintf("%016x", sum)
	meta.ID = fmt.Sprintf("%s_%s_%s", meta.Model, meta.Kind, meta.Hash[:8])
	meta.SourceBytes = len(source)
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "create artifact")
	}

	metaFile, err := os.Create(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return "", errors.Wrap(err, "create metadata")
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", errors.Wrap(err, "encode metadata")
	}

	if err := os.WriteFile(filepath.Join(dir, meta.Function+".go"), []byte(source), 0644); err != nil {
		return "", errors.Wrap(err, "write source")
	}

	if values != nil {
		if err := writeValues(filepath.Join(dir, "values.csv"), values); err != nil {
			return "", err
		}
	}
	return meta.ID, nil
}

func writeValues(path string, values *Values) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create values")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(values.Header); err != nil {
		return errors.Wrap(err, "write values header")
	}
	for _, row := range values.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return errors.Wrap(err, "write values")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush values")
}

// List returns the metadata of every readable artifact, newest first.
func (s *Store) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Metadata{}, nil
		}
		return nil, errors.Wrap(err, "list artifacts")
	}

	arts := make([]Metadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		arts = append(arts, *meta)
	}
	sort.SliceStable(arts, func(i, j int) bool {
		if arts[i].Timestamp.Equal(arts[j].Timestamp) {
			return arts[i].ID < arts[j].ID
		}
		return arts[i].Timestamp.After(arts[j].Timestamp)
	})
	return arts, nil
}

func (s *Store) Load(id string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, id)
		}
		return nil, errors.Wrap(err, "read metadata")
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decode metadata %s", id)
	}
	return &meta, nil
}

func (s *Store) LoadSource(id string) (string, error) {
	meta, err := s.Load(id)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, meta.Function+".go"))
	if err != nil {
		return "", errors.Wrap(err, "read source")
	}
	return string(data), nil
}

// LoadValues reads the values table of an artifact. An artifact saved
// without values yields an empty table.
func (s *Store) LoadValues(id string) (*Values, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, "values.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Values{}, nil
		}
		return nil, errors.Wrap(err, "open values")
	}
	defer file.Close()
	return readValues(file)
}

func readValues(r io.Reader) (*Values, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse values")
	}
	if len(records) == 0 {
		return &Values{}, nil
	}

	v := &Values{Header: records[0], Rows: make([][]float64, 0, len(records)-1)}
	for i, rec := range records[1:] {
		row := make([]float64, len(rec))
		for j, field := range rec {
			x, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "values row %d column %d", i+1, j)
			}
			row[j] = x
		}
		v.Rows = append(v.Rows, row)
	}
	return v, nil
}
