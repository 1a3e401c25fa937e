package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/maruel/pcrm/internal/crm"
	"github.com/maruel/pcrm/internal/history"
	"github.com/maruel/pcrm/internal/models"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(BorderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		})
}

func titled(title string, t fmt.Stringer) string {
	return TitleStyle.Render(title) + "\n" + t.String()
}

// ContactOverview renders contacts in one column per recency bucket.
func ContactOverview(groups map[crm.Bucket][]models.Contact, thresholds []int) string {
	headers := make([]string, len(crm.Buckets))
	n := 0
	for i, b := range crm.Buckets {
		headers[i] = b.Label(thresholds)
		n = max(n, len(groups[b]))
	}
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = make([]string, len(crm.Buckets))
		for j, b := range crm.Buckets {
			if i < len(groups[b]) {
				c := groups[b][i]
				rows[i][j] = fmt.Sprintf("(%d) %s", c.ID, c.Name)
			}
		}
	}
	t := newTable(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := BucketStyle(crm.Buckets[col])
			if row == table.HeaderRow {
				return HeaderStyle.Foreground(s.GetForeground())
			}
			return CellStyle.Foreground(s.GetForeground())
		})
	return titled("Contacts", t)
}

// ContactDetail renders a single contact. met is false when the contact was
// never met.
func ContactDetail(c *models.Contact, last time.Time, met bool, b crm.Bucket) string {
	lastMet := "never"
	if met {
		lastMet = last.Format(models.DateLayout)
	}
	t := newTable("ID", "Country", "Industry", "Last met").
		Row(strconv.Itoa(c.ID), c.Country, c.Industry, BucketStyle(b).Render(lastMet))
	return titled(c.Name, t)
}

// Meetings renders a list of meetings.
func Meetings(ms []models.Meeting) string {
	t := newTable("ID", "Title", "Contact", "Loc", "Date")
	for _, m := range ms {
		t.Row(strconv.Itoa(m.ID), m.Title, m.ContactName, m.Loc, m.Date)
	}
	return titled("Meetings", t)
}

// MeetingDetail renders a single meeting; its description is rendered as
// markdown wrapped at width columns.
func MeetingDetail(m *models.Meeting, width int) (string, error) {
	t := newTable("ID", "Contact", "Location", "Date", "Topics").
		Row(strconv.Itoa(m.ID), fmt.Sprintf("%s (%d)", m.ContactName, m.ContactID), m.Loc, m.Date, strings.Join(m.Topics, ", "))
	out := titled(m.Title, t)
	if m.Description == "" {
		return out, nil
	}
	md, err := Markdown(m.Description, width)
	if err != nil {
		return "", err
	}
	return out + "\n" + md, nil
}

// Markdown renders md for the terminal.
func Markdown(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// History renders the commit log.
func History(commits []history.Commit) string {
	t := newTable("Commit", "Date", "Change")
	for _, c := range commits {
		hash := c.Hash
		if len(hash) > 8 {
			hash = hash[:8]
		}
		t.Row(hash, c.When.Local().Format(time.DateTime), c.Message)
	}
	return titled("History", t)
}

// Error formats err for the user.
func Error(err error) string {
	return ErrorStyle.Render("Error: " + err.Error())
}
