// Package export writes the whole database to a single file for use in other
// tools.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	crmerrors "github.com/maruel/pcrm/internal/errors"
	"github.com/maruel/pcrm/internal/models"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	XLSX Format = "xlsx"
	YAML Format = "yaml"
	JSON Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{XLSX, YAML, JSON}

// Sheet names of the XLSX workbook.
const (
	ContactSheet = "Contacts"
	MeetingSheet = "Meetings"
)

// Document is the content of a YAML or JSON export.
type Document struct {
	Contacts []models.Contact `json:"contacts" yaml:"contacts"`
	Meetings []models.Meeting `json:"meetings" yaml:"meetings"`
}

// ParseFormat validates a format name. An empty name is derived from the
// extension of path.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if name == "yml" {
			name = string(YAML)
		}
	}
	for _, f := range Formats {
		if string(f) == strings.ToLower(name) {
			return f, nil
		}
	}
	return "", crmerrors.BadInput(fmt.Sprintf("unknown export format %q", name))
}

// Write serializes contacts and meetings to w.
func Write(w io.Writer, format Format, contacts []models.Contact, meetings []models.Meeting) error {
	if contacts == nil {
		contacts = []models.Contact{}
	}
	if meetings == nil {
		meetings = []models.Meeting{}
	}
	doc := Document{Contacts: contacts, Meetings: meetings}
	switch format {
	case XLSX:
		return writeXLSX(w, &doc)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return crmerrors.WriteError("failed to encode yaml", err)
		}
		if err := enc.Close(); err != nil {
			return crmerrors.WriteError("failed to encode yaml", err)
		}
		return nil
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "    ")
		if err := enc.Encode(&doc); err != nil {
			return crmerrors.WriteError("failed to encode json", err)
		}
		return nil
	default:
		return crmerrors.BadInput(fmt.Sprintf("unknown export format %q", format))
	}
}

func writeXLSX(w io.Writer, doc *Document) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", ContactSheet); err != nil {
		return crmerrors.WriteError("failed to create sheet", err)
	}
	if _, err := f.NewSheet(MeetingSheet); err != nil {
		return crmerrors.WriteError("failed to create sheet", err)
	}

	rows := [][]any{{"ID", "Name", "Country", "Industry"}}
	for _, c := range doc.Contacts {
		rows = append(rows, []any{c.ID, c.Name, c.Country, c.Industry})
	}
	if err := setRows(f, ContactSheet, rows); err != nil {
		return err
	}

	rows = [][]any{{"ID", "ContactID", "ContactName", "Title", "Date", "Loc", "Description", "Topics"}}
	for _, m := range doc.Meetings {
		rows = append(rows, []any{m.ID, m.ContactID, m.ContactName, m.Title, m.Date, m.Loc, m.Description, strings.Join(m.Topics, ", ")})
	}
	if err := setRows(f, MeetingSheet, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return crmerrors.WriteError("failed to write workbook", err)
	}
	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return crmerrors.WriteError("failed to address cell", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return crmerrors.WriteError(fmt.Sprintf("failed to fill sheet %s", sheet), err)
		}
	}
	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s1", lastColumn(len(rows[0]))), nil); err != nil {
		return crmerrors.WriteError(fmt.Sprintf("failed to add filter to sheet %s", sheet), err)
	}
	return nil
}

func lastColumn(n int) string {
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return "A"
	}
	return name
}
