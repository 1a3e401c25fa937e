package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	crmerrors "github.com/maruel/pcrm/internal/errors"
	"github.com/maruel/pcrm/internal/models"
)

var (
	testContacts = []models.Contact{
		{ID: 1, Name: "Ada", Country: "UK", Industry: "Math"},
		{ID: 3, Name: "Grace", Country: "US", Industry: "Navy"},
	}
	testMeetings = []models.Meeting{
		{ID: 2, ContactID: 1, ContactName: "Ada", Title: "Tea", Date: "2024-06-14", Loc: "London", Topics: []string{"engines", "poetry"}},
	}
)

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, XLSX, testContacts, testMeetings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	assert.Equal(t, []string{ContactSheet, MeetingSheet}, f.GetSheetList())

	rows, err := f.GetRows(ContactSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID", "Name", "Country", "Industry"},
		{"1", "Ada", "UK", "Math"},
		{"3", "Grace", "US", "Navy"},
	}, rows)

	rows, err = f.GetRows(MeetingSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2", "1", "Ada", "Tea", "2024-06-14", "London", "", "engines, poetry"}, rows[1])
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, YAML, testContacts, nil))
	assert.Contains(t, buf.String(), "Name: Ada")

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, testContacts, doc.Contacts)
	assert.Empty(t, doc.Meetings)
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, JSON, testContacts, testMeetings))
	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, Document{Contacts: testContacts, Meetings: testMeetings}, doc)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name, path string
		want       Format
	}{
		{"", "out.xlsx", XLSX},
		{"", "out.YML", YAML},
		{"", "out.yaml", YAML},
		{"JSON", "out.txt", JSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name, tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("", "out.csv")
	assert.ErrorIs(t, err, crmerrors.ErrBadInput)
	assert.ErrorIs(t, Write(&bytes.Buffer{}, Format("pdf"), nil, nil), crmerrors.ErrBadInput)
}
