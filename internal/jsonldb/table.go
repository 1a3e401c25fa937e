package jsonldb

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	crmerrors "github.com/maruel/pcrm/internal/errors"
)

// Table stores every row of one logical table as a single JSON array file.
//
// Nothing is cached: Read loads the whole file and Write overwrites it. The
// overwrite is not atomic; a failed Write may leave a truncated file behind.
type Table[T any] struct {
	name   string
	path   string
	schema *gojsonschema.Schema
	mu     sync.Mutex
}

// NewTable creates a Table named name stored as <dir>/<name>.json. It does not
// touch the disk.
func NewTable[T any](dir, name string) (*Table[T], error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, crmerrors.BadInput(fmt.Sprintf("invalid table name %q", name))
	}
	schema, err := schemaFor[T]()
	if err != nil {
		return nil, fmt.Errorf("failed to build schema for table %s: %w", name, err)
	}
	return &Table[T]{
		name:   name,
		path:   filepath.Join(dir, name+".json"),
		schema: schema,
	}, nil
}

// Name returns the table name.
func (t *Table[T]) Name() string {
	return t.name
}

// Path returns the table file path.
func (t *Table[T]) Path() string {
	return t.path
}

// Exists reports whether the table file is present.
func (t *Table[T]) Exists() bool {
	_, err := os.Stat(t.path)
	return err == nil
}

// Init creates the table file with an empty record set, replacing any
// existing content.
func (t *Table[T]) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return crmerrors.FileError("failed to create directory for table "+t.name, err)
	}
	if err := os.WriteFile(t.path, []byte("[]\n"), 0o644); err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return crmerrors.FileError("failed to create table file "+t.path, err)
		}
		return crmerrors.WriteError("failed to write table file "+t.path, err)
	}
	slog.Debug("table initialized", "table", t.name, "path", t.path)
	return nil
}

// Read loads every row of the table.
func (t *Table[T]) Read() ([]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.path)
	if err != nil {
		return nil, crmerrors.ReadError("failed to read table "+t.name, err)
	}

	res, err := t.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, crmerrors.FormatError("failed to parse table "+t.name, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, crmerrors.FormatError("invalid table "+t.name, errors.New(strings.Join(msgs, "; ")))
	}

	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, crmerrors.FormatError("failed to unmarshal table "+t.name, err)
	}
	if rows == nil {
		rows = []T{}
	}
	slog.Debug("table loaded", "table", t.name, "rows", len(rows))
	return rows, nil
}

// Write replaces the table content with rows.
func (t *Table[T]) Write(rows []T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if rows == nil {
		rows = []T{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rows); err != nil {
		return crmerrors.WriteError("failed to marshal rows for table "+t.name, err)
	}

	f, err := os.Create(t.path)
	if err != nil {
		return crmerrors.WriteError("failed to open table file "+t.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	writer := bufio.NewWriter(f)
	if _, err := writer.Write(buf.Bytes()); err != nil {
		return crmerrors.WriteError("failed to write table "+t.name, err)
	}
	if err := writer.Flush(); err != nil {
		return crmerrors.WriteError("failed to flush table "+t.name, err)
	}
	if err := f.Close(); err != nil {
		return crmerrors.WriteError("failed to close table "+t.name, err)
	}
	slog.Debug("table saved", "table", t.name, "rows", len(rows))
	return nil
}

// schemaFor builds the validator for a JSON array of T.
//
// Only fields tagged `jsonschema:"required"` are required and unknown fields
// are accepted, so files written by older or newer versions still load.
func schemaFor[T any]() (*gojsonschema.Schema, error) {
	r := jsonschema.Reflector{
		Anonymous:                  true,
		DoNotReference:             true,
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
	}
	item := r.Reflect(new(T))
	item.Version = ""
	item.ID = ""
	raw, err := json.Marshal(&jsonschema.Schema{Type: "array", Items: item})
	if err != nil {
		return nil, err
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
}
