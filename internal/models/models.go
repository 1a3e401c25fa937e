// Package models defines the records stored in the pcrm tables.
//
// JSON keys are the field names used by the record store for updates and
// filters, e.g. "Country" or "ContactID".
package models

// Table names.
const (
	ContactTable = "contact"
	MeetingTable = "meeting"
)

// Contact is a person being tracked.
type Contact struct {
	ID       int    `json:"ID" yaml:"ID" jsonschema:"required"`
	Name     string `json:"Name" yaml:"Name"`
	Country  string `json:"Country" yaml:"Country"`
	Industry string `json:"Industry" yaml:"Industry"`
}

// Meeting is an encounter with a contact.
//
// ContactID and ContactName are copies taken when the meeting is recorded, not
// live references: renaming or deleting the contact does not touch them.
type Meeting struct {
	ID          int      `json:"ID" yaml:"ID" jsonschema:"required"`
	ContactID   int      `json:"ContactID" yaml:"ContactID"`
	ContactName string   `json:"ContactName" yaml:"ContactName"`
	Title       string   `json:"Title" yaml:"Title"`
	Date        string   `json:"Date" yaml:"Date" jsonschema:"description=YYYY-MM-DD"`
	Loc         string   `json:"Loc" yaml:"Loc"`
	Description string   `json:"Description,omitempty" yaml:"Description,omitempty"`
	Topics      []string `json:"Topics,omitempty" yaml:"Topics,omitempty"`
}

// DateLayout is the layout of Meeting.Date.
const DateLayout = "2006-01-02"
