package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/maruel/pcrm/internal/crm"
	crmerrors "github.com/maruel/pcrm/internal/errors"
	"github.com/maruel/pcrm/internal/export"
	"github.com/maruel/pcrm/internal/history"
	"github.com/maruel/pcrm/internal/ident"
	"github.com/maruel/pcrm/internal/jsonldb"
	"github.com/maruel/pcrm/internal/models"
	"github.com/maruel/pcrm/internal/view"
)

// markdownWidth is the wrapping width of meeting descriptions.
const markdownWidth = 80

// emptyOnNotFound turns the NOT_FOUND of a listing into an empty result.
func emptyOnNotFound[T any](rows []T, err error) ([]T, error) {
	if crmerrors.CodeOf(err) == crmerrors.CodeNotFound {
		return nil, nil
	}
	return rows, err
}

// showContacts prints a single contact in detail, or the recency overview of
// several.
func (a *app) showContacts(cs []models.Contact) error {
	if len(cs) == 1 {
		last, met, err := a.svc.LastMet(cs[0].ID)
		if err != nil {
			return err
		}
		b := crm.Recency(last, met, a.svc.Now(), a.svc.Thresholds())
		a.printf("%s\n", view.ContactDetail(&cs[0], last, met, b))
		return nil
	}
	groups, err := a.svc.Overview(cs)
	if err != nil {
		return err
	}
	a.printf("%s\n", view.ContactOverview(groups, a.svc.Thresholds()))
	return nil
}

func (a *app) showMeetings(ms []models.Meeting) error {
	if len(ms) == 1 {
		out, err := view.MeetingDetail(&ms[0], markdownWidth)
		if err != nil {
			return err
		}
		a.printf("%s\n", out)
		return nil
	}
	a.printf("%s\n", view.Meetings(ms))
	return nil
}

// watch runs render now and after every change to the tables, until ctx is
// cancelled.
func (a *app) watch(ctx context.Context, render func() error) error {
	if err := render(); err != nil {
		return err
	}
	err := jsonldb.Watch(ctx, a.svc.Paths(), func(path string) {
		slog.Debug("table changed", "path", path)
		if err := render(); err != nil {
			a.printf("%s\n", view.Error(err))
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "List contacts or meetings",
	}

	var cq crm.ContactQuery
	var watch bool
	contact := &cobra.Command{
		Use:   "contact [NAME...]",
		Short: "List contacts colored by how recently they were met",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			cq.Name = joinArgs(args)
			render := func() error {
				cs, err := emptyOnNotFound(a.svc.Contacts(cq))
				if err != nil {
					return err
				}
				return a.showContacts(cs)
			}
			if watch {
				return a.watch(cmd.Context(), render)
			}
			return render()
		},
	}
	contact.Flags().StringVarP(&cq.Country, "country", "c", "", "only contacts from this country")
	contact.Flags().StringVarP(&cq.Industry, "industry", "i", "", "only contacts in this industry")
	contact.Flags().IntVar(&cq.ID, "id", 0, "only the contact with this ID")
	contact.Flags().BoolVarP(&watch, "watch", "w", false, "redraw whenever the database changes")

	var mq crm.MeetingQuery
	meeting := &cobra.Command{
		Use:   "meeting [CONTACT NAME...]",
		Short: "List meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			mq.ContactName = joinArgs(args)
			ms, err := emptyOnNotFound(a.svc.Meetings(mq))
			if err != nil {
				return err
			}
			return a.showMeetings(ms)
		},
	}
	meeting.Flags().StringVarP(&mq.Title, "title", "t", "", "only meetings with this title")
	meeting.Flags().StringVarP(&mq.Date, "date", "d", "", "only meetings on this date")
	meeting.Flags().StringVarP(&mq.Loc, "location", "l", "", "only meetings at this location")
	meeting.Flags().IntVar(&mq.ID, "id", 0, "only the meeting with this ID")
	meeting.Flags().IntVar(&mq.ContactID, "contact-id", 0, "only meetings with the contact with this ID")

	cmd.AddCommand(contact, meeting)
	return cmd
}

// writeOutput encodes into memory and only then writes path, so a failed
// encode leaves no partial file behind.
func writeOutput(path string, encode func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return crmerrors.WriteError("failed to write "+path, err)
	}
	return nil
}

func newExportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write every contact and meeting to FILE (xlsx, yaml or json)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format, args[0])
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			contacts, err := a.svc.AllContacts()
			if err != nil {
				return err
			}
			meetings, err := a.svc.AllMeetings()
			if err != nil {
				return err
			}
			err = writeOutput(args[0], func(w io.Writer) error {
				return export.Write(w, f, contacts, meetings)
			})
			if err != nil {
				return err
			}
			a.printf("Exported %d contacts and %d meetings to %s\n", len(contacts), len(meetings), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "xlsx, yaml or json (default from the file extension)")
	return cmd
}

func newLogCmd(a *app) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the history of changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if !a.cfg.History {
				return crmerrors.BadInput(fmt.Sprintf("history is disabled, set \"history: true\" in %s", a.cfgPath))
			}
			rec, err := history.Open(a.cfg.Database)
			if err != nil {
				return err
			}
			commits, err := rec.Log(n)
			if err != nil {
				return err
			}
			a.printf("%s\n", view.History(commits))
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", 20, "number of changes to show, 0 for all")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the data lives and how much of it there is",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			st, err := a.svc.Stats()
			if err != nil {
				return err
			}
			ids := &ident.CounterFile{Path: a.cfgPath}
			a.printf("Settings: %s\n", a.cfgPath)
			a.printf("Database: %s\n", a.cfg.Database)
			a.printf("History:  %t\n", a.cfg.History)
			for _, t := range []struct {
				name  string
				count int
			}{
				{models.ContactTable, st.Contacts},
				{models.MeetingTable, st.Meetings},
			} {
				next, err := ids.Peek(t.name)
				if err != nil {
					return err
				}
				a.printf("%-8s  %d records, next ID %d\n", t.name+":", t.count, next)
			}
			return nil
		},
	}
}
