package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/engine"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/notify"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/profile"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
)

// withServices opens storage for the duration of fn.
func (c *cli) withServices(fn func(svc *services) error) error {
	svc, err := openServices(c.settings, nil, nil)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

// parseWhen accepts RFC3339, "+90m" style offsets from now, or "" for now.
func parseWhen(s string, now time.Time) (time.Time, error) {
	switch {
	case s == "":
		return now, nil
	case strings.HasPrefix(s, "+"):
		d, err := time.ParseDuration(s[1:])
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %q", config.ErrInvalidTime, s)
		}
		return now.Add(d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %q", config.ErrInvalidTime, s)
	}
	return t, nil
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// -----------------------------------------------------------------------------
// log
// -----------------------------------------------------------------------------

func (c *cli) logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log a care event",
		Long: `Log a feeding or a diaper change. The next reminder is recomputed right away.

Examples:
  baby-bloom log feeding --type bottle --amount 120
  baby-bloom log diaper --type wet --at 2024-02-20T10:30:00+01:00`,
	}

	var (
		kind, notes, at string
		amount          float64
		duration        int
	)

	feeding := &cobra.Command{
		Use:   "feeding",
		Short: "Log a feeding session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(func(svc *services) error {
				ts, err := parseWhen(at, svc.clock.Now())
				if err != nil {
					return err
				}
				f, err := svc.journal.LogFeeding(engine.Feeding{Timestamp: ts, Type: kind, AmountMl: amount, DurationMin: duration, Notes: notes})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged feeding %s at %s\n", f.ID, f.Timestamp.Format(time.RFC3339))
				return nil
			})
		},
	}
	feeding.Flags().StringVar(&kind, "type", "", "breast, bottle or solid")
	feeding.Flags().Float64Var(&amount, "amount", 0, "Amount in ml")
	feeding.Flags().IntVar(&duration, "duration", 0, "Duration in minutes")

	diaper := &cobra.Command{
		Use:   "diaper",
		Short: "Log a diaper change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(func(svc *services) error {
				ts, err := parseWhen(at, svc.clock.Now())
				if err != nil {
					return err
				}
				d, err := svc.journal.LogDiaper(engine.DiaperChange{Timestamp: ts, Type: kind, Notes: notes})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged diaper change %s at %s\n", d.ID, d.Timestamp.Format(time.RFC3339))
				return nil
			})
		},
	}
	diaper.Flags().StringVar(&kind, "type", "", "wet, dirty or both")

	for _, sub := range []*cobra.Command{feeding, diaper} {
		sub.Flags().StringVar(&notes, "notes", "", "Free-form notes")
		sub.Flags().StringVar(&at, "at", "", "When it happened (RFC3339 or +/-offset, default now)")
		cmd.AddCommand(sub)
	}
	return cmd
}

// -----------------------------------------------------------------------------
// reminders
// -----------------------------------------------------------------------------

func (c *cli) remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reminders",
		Aliases: []string{"r"},
		Short:   "Manage reminders",
		Long: `List, add, complete and delete reminders.

Synced reminders (feeding, diaper, sleep, vaccination, medication,
appointment) follow the care journal and are read-only here.

Examples:
  baby-bloom reminders list --due
  baby-bloom reminders add --title "Buy formula" --due +2h --category feeding`,
	}

	var dueOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List reminders by due time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(func(svc *services) error {
				now := svc.clock.Now()
				rs := svc.board.All()
				if dueOnly {
					rs = svc.board.Due(now)
				}
				printReminders(cmd.OutOrStdout(), rs, now)
				return nil
			})
		},
	}
	list.Flags().BoolVar(&dueOnly, "due", false, "Only show open reminders that are due")

	var title, due, category, notes, icon string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a manual reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(func(svc *services) error {
				at, err := parseWhen(due, svc.clock.Now())
				if err != nil {
					return err
				}
				r, err := svc.board.Add(reminder.Reminder{
					Title:    title,
					DueAt:    at,
					Category: reminder.Category(category),
					Notes:    notes,
					Icon:     icon,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", r.ID, r.DisplayIcon())
				return nil
			})
		},
	}
	add.Flags().StringVar(&title, "title", "", "Reminder title (required)")
	add.Flags().StringVar(&due, "due", "", "Due time (RFC3339 or +offset, required)")
	add.Flags().StringVar(&category, "category", string(reminder.CategoryGeneral), "feeding, sleep, diaper, health, medication, appointment, vaccination or general")
	add.Flags().StringVar(&notes, "notes", "", "Notes, shown as the notification body")
	add.Flags().StringVar(&icon, "icon", "", "Icon override")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("due")

	done := &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle completion of a manual reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withServices(func(svc *services) error {
				r, err := svc.board.ToggleComplete(args[0])
				if err != nil {
					return err
				}
				state := config.StatusPending
				if r.Completed {
					state = config.StatusDone
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", r.ID, state)
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a manual reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withServices(func(svc *services) error {
				if err := svc.board.Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, done, del)
	return cmd
}

func printReminders(out io.Writer, rs []reminder.Reminder, now time.Time) {
	if len(rs) == 0 {
		fmt.Fprintln(out, "No reminders.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDUE\tSTATUS\tTITLE")
	for _, r := range rs {
		status := config.StatusPending
		switch {
		case r.Completed:
			status = config.StatusDone
		case r.IsDue(now):
			status = config.FallbackDueNow
		}
		title := r.Title
		if icon := r.DisplayIcon(); !strings.HasPrefix(title, icon) {
			title = icon + " " + title
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.DueAt.Local().Format(config.DateTimeFormatDisplay), status,
			truncate(title, config.MaxCLIListLineWidth/2))
	}
	_ = w.Flush()
}

// -----------------------------------------------------------------------------
// profile
// -----------------------------------------------------------------------------

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or set the baby profile",
		Long: `The birth date drives the vaccination reminders.

Examples:
  baby-bloom profile set --name Lou --birth 2024-02-01
  baby-bloom profile import --path ~/Contacts/lou.vcf
  baby-bloom profile import --url https://dav.example.com/lou.vcf --user me --save-password`,
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(func(svc *services) error {
				printProfile(cmd.OutOrStdout(), svc.journal.Profile(), svc.clock.Now())
				return nil
			})
		},
	}

	var name, birth string
	set := &cobra.Command{
		Use:   "set",
		Short: "Set the name and birth date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bd, err := time.ParseInLocation(config.DateLayout, birth, time.Local)
			if err != nil {
				return fmt.Errorf("%s: %q", config.ErrInvalidTime, birth)
			}
			return c.withServices(func(svc *services) error {
				p := engine.Profile{Name: name, BirthDate: bd}
				if err := svc.journal.SetProfile(p); err != nil {
					return err
				}
				printProfile(cmd.OutOrStdout(), p, svc.clock.Now())
				return nil
			})
		},
	}
	set.Flags().StringVar(&name, "name", config.FallbackName, "Baby's name")
	set.Flags().StringVar(&birth, "birth", "", "Birth date (YYYY-MM-DD, required)")
	_ = set.MarkFlagRequired("birth")

	var src profile.Source
	var savePassword bool
	imp := &cobra.Command{
		Use:   "import",
		Short: "Import name and birth date from a vCard file or URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if src.User != "" {
				if src.Pass == "" {
					if p, err := keyring.Get(config.KeyringService, src.User); err == nil {
						src.Pass = p
					}
				} else if savePassword {
					if err := keyring.Set(config.KeyringService, src.User, src.Pass); err != nil {
						return fmt.Errorf("%s: %w", config.ErrKeyringLookup, err)
					}
				}
			}

			importer := &profile.Importer{Fetcher: profile.NewCardFetcher()}
			p, err := importer.Import(cmd.Context(), src)
			if err != nil {
				return err
			}
			return c.withServices(func(svc *services) error {
				if err := svc.journal.SetProfile(p); err != nil {
					return err
				}
				printProfile(cmd.OutOrStdout(), p, svc.clock.Now())
				return nil
			})
		},
	}
	imp.Flags().StringVar(&src.Path, "path", "", "Local .vcf file")
	imp.Flags().StringVar(&src.URL, "url", "", "CardDAV/WebDAV URL of the vCard")
	imp.Flags().StringVar(&src.User, "user", "", "Username for the URL")
	imp.Flags().StringVar(&src.Pass, "password", "", "Password (read from the OS keyring when omitted)")
	imp.Flags().BoolVar(&savePassword, "save-password", false, "Store --password in the OS keyring")
	imp.MarkFlagsOneRequired("path", "url")

	cmd.AddCommand(show, set, imp)
	return cmd
}

func printProfile(out io.Writer, p engine.Profile, now time.Time) {
	if p.BirthDate.IsZero() {
		fmt.Fprintf(out, "%s (no birth date)\n", p.Name)
		return
	}
	fmt.Fprintf(out, "%s, born %s (%d months)\n", p.Name, p.BirthDate.Format(config.DateLayout), p.AgeInMonths(now))
}

// -----------------------------------------------------------------------------
// telegram
// -----------------------------------------------------------------------------

func (c *cli) telegramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Configure the Telegram notification sink",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-token <chat-id> <bot-token>",
		Short: "Store the bot token in the OS keyring",
		Long: `Store the bot token in the OS keyring under the chat id, so that
telegram.bot_token can stay out of the configuration file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := notify.StoreTelegramToken(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token stored for chat %s\n", args[0])
			return nil
		},
	})
	return cmd
}
