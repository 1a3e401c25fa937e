package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maruel/pcrm/internal/config"
	"github.com/maruel/pcrm/internal/crm"
	crmerrors "github.com/maruel/pcrm/internal/errors"
	"github.com/maruel/pcrm/internal/view"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pcrm",
		Short:         "Personal CRM: keep track of the people you meet",
		Version:       version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, seqURL := a.logLevel, ""
			// Best effort: the settings file does not exist before "pcrm init".
			if cfg, err := config.ReadFile(a.cfgPath); err == nil {
				if level == "" {
					level = cfg.LogLevel
				}
				seqURL = cfg.SeqURL
			}
			logger, closeLog := initLogger(level, seqURL)
			slog.SetDefault(logger)
			a.closeLog = closeLog
			slog.Debug("starting", "command", cmd.CommandPath(), "config", a.cfgPath)
			return nil
		},
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVar(&a.cfgPath, "config", config.DefaultPath(), "settings file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newInitCmd(a),
		newCreateCmd(a),
		newShowCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
		newLogCmd(a),
		newStatusCmd(a),
	)
	return root
}

// joinArgs rebuilds a name given as several shell words.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// ask returns value, or prompts for it on a terminal. Without a terminal an
// empty value is BAD_INPUT.
func (a *app) ask(value, label, def string) (string, error) {
	if value != "" {
		return value, nil
	}
	if !a.interactive {
		if def != "" {
			return def, nil
		}
		return "", crmerrors.BadInput(strings.ToLower(label) + " is required")
	}
	return view.Prompt(label, def, a.in, a.out)
}

func newInitCmd(a *app) *cobra.Command {
	var dbPath string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the settings file and an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := a.ask(dbPath, "Database directory", config.DefaultDatabaseDir())
			if err != nil {
				return err
			}
			// Read before a forced reset so counters stay above every
			// identifier the old tables held.
			used, err := crm.UsedIDs(dir)
			if err != nil {
				if !force {
					return err
				}
				slog.Warn("ignoring unreadable table", "err", err)
			}
			cfg, err := config.Init(a.cfgPath, dir)
			if err != nil {
				return err
			}
			if cfg.RaiseNextIDs(used) {
				slog.Info("raised counters above existing records", "next_ids", cfg.NextIDs)
				if err := cfg.Save(a.cfgPath); err != nil {
					return err
				}
			}
			created, err := crm.InitDatabase(dir, force)
			if err != nil {
				return err
			}
			if len(created) == 0 {
				a.printf("%s\n", view.HelpStyle.Render("Database at "+dir+" already exists, use --force to reset it"))
			} else {
				a.printf("%s\n", view.SuccessStyle.Render(fmt.Sprintf("Database created at %s (%s)", dir, strings.Join(created, ", "))))
			}
			if cfg.History {
				if err := a.open(); err != nil {
					return err
				}
			}
			a.printf("Settings saved to %s\n", a.cfgPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db-path", "", "database directory")
	cmd.Flags().BoolVar(&force, "force", false, "reset existing tables")
	return cmd
}

func newCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a contact or a meeting",
	}

	var country, industry string
	contact := &cobra.Command{
		Use:   "contact NAME...",
		Short: "Create a contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			name, err := a.ask(joinArgs(args), "Name", "")
			if err != nil {
				return err
			}
			c, err := a.svc.AddContact(name, country, industry)
			if err != nil {
				return err
			}
			a.printf("%s\n", view.SuccessStyle.Render(fmt.Sprintf("Created contact (%d) %s", c.ID, c.Name)))
			return nil
		},
	}
	contact.Flags().StringVarP(&country, "country", "c", "", "country")
	contact.Flags().StringVarP(&industry, "industry", "i", "", "industry")

	var m crm.NewMeeting
	meeting := &cobra.Command{
		Use:   "meeting CONTACT...",
		Short: "Record a meeting with a contact, given by name or ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			var err error
			if m.Contact, err = a.ask(joinArgs(args), "Contact", ""); err != nil {
				return err
			}
			if m.Title, err = a.ask(m.Title, "Title", ""); err != nil {
				return err
			}
			created, err := a.svc.AddMeeting(m)
			if err != nil {
				return err
			}
			a.printf("%s\n", view.SuccessStyle.Render(fmt.Sprintf("Created meeting (%d) %s with %s on %s", created.ID, created.Title, created.ContactName, created.Date)))
			return nil
		},
	}
	meeting.Flags().StringVarP(&m.Title, "title", "t", "", "title")
	meeting.Flags().StringVarP(&m.Date, "date", "d", "", "date, e.g. 2024-06-14, yesterday (default today)")
	meeting.Flags().StringVarP(&m.Loc, "location", "l", "", "location")
	meeting.Flags().StringVar(&m.Description, "description", "", "notes, in markdown")
	meeting.Flags().StringArrayVar(&m.Topics, "topic", nil, "topic discussed, repeatable")

	cmd.AddCommand(contact, meeting)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change a field of a contact or a meeting",
	}
	var field, value string

	contact := &cobra.Command{
		Use:   "contact REF...",
		Short: "Edit the contact given by name or ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			updated, err := a.svc.EditContact(joinArgs(args), field, value)
			if err != nil {
				return err
			}
			if len(updated) == 0 {
				a.printf("%s\n", view.HelpStyle.Render("Nothing updated: contacts have no field "+field))
				return nil
			}
			return a.showContacts(updated)
		},
	}

	meeting := &cobra.Command{
		Use:   "meeting ID",
		Short: "Edit a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := crm.ParseID(args[0])
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			updated, err := a.svc.EditMeeting(id, field, value)
			if err != nil {
				return err
			}
			if len(updated) == 0 {
				a.printf("%s\n", view.HelpStyle.Render("Nothing updated: meetings have no field "+field))
				return nil
			}
			return a.showMeetings(updated)
		},
	}

	for _, c := range []*cobra.Command{contact, meeting} {
		c.Flags().StringVarP(&field, "field", "f", "", "field name, e.g. Country")
		c.Flags().StringVarP(&value, "value", "v", "", "new value")
		_ = c.MarkFlagRequired("field")
		_ = c.MarkFlagRequired("value")
	}
	cmd.AddCommand(contact, meeting)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a contact or a meeting",
	}
	contact := &cobra.Command{
		Use:   "contact REF...",
		Short: "Delete the contact given by name or ID; its meetings are kept",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			c, err := a.svc.DeleteContact(joinArgs(args))
			if err != nil {
				return err
			}
			a.printf("Deleted contact (%d) %s\n", c.ID, c.Name)
			return nil
		},
	}
	meeting := &cobra.Command{
		Use:   "meeting ID",
		Short: "Delete a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := crm.ParseID(args[0])
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			m, err := a.svc.DeleteMeeting(id)
			if err != nil {
				return err
			}
			a.printf("Deleted meeting (%d) %s\n", m.ID, m.Title)
			return nil
		},
	}
	cmd.AddCommand(contact, meeting)
	return cmd
}
