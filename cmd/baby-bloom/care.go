package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/engine"
	"github.com/spf13/cobra"
)

func (c *cli) careCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "care",
		Short: "Manage vaccinations, medications and appointments",
	}
	cmd.AddCommand(c.vaccinesCmd(), c.medsCmd(), c.appointmentsCmd())
	return cmd
}

func (c *cli) vaccinesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vaccines",
		Short: "Track the immunization schedule",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the schedule with the doses already given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(func(svc *services) error {
				printVaccines(cmd.OutOrStdout(), svc.journal.Profile(), svc.journal.Vaccinations())
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "done <vaccine-id>",
		Short: "Record a dose as given today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withServices(func(svc *services) error {
				if err := svc.journal.CompleteVaccine(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s\n", args[0])
				return nil
			})
		},
	})
	return cmd
}

func printVaccines(out io.Writer, p engine.Profile, done engine.Vaccinations) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDUE\tGIVEN\tVACCINE")
	for _, v := range engine.VaccineSchedule {
		due := "-"
		if !p.BirthDate.IsZero() {
			due = p.BirthDate.AddDate(0, v.Months, 0).Format(config.DateLayout)
		}
		given := ""
		if at, ok := done[v.ID]; ok {
			given = at.Format(config.DateLayout)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ID, due, given, v.Name)
	}
	_ = w.Flush()
}

func (c *cli) medsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meds",
		Short: "Manage medication courses",
		Long: `Medications get one reminder per time of day while the course runs.

Examples:
  baby-bloom care meds add --name "Vitamin D" --dosage "1 drop" --times 09:00
  baby-bloom care meds add --name Amoxicillin --times 08:00,20:00 --end 2024-03-01`,
	}

	var m engine.Medication
	add := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a medication course",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(func(svc *services) error {
				saved, err := svc.journal.AddMedication(m)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", saved.ID, saved.Name)
				return nil
			})
		},
	}
	add.Flags().StringVar(&m.ID, "id", "", "Existing course to replace")
	add.Flags().StringVar(&m.Name, "name", "", "Medication name (required)")
	add.Flags().StringVar(&m.Dosage, "dosage", "", "Dosage")
	add.Flags().StringSliceVar(&m.Times, "times", nil, "Times of day, HH:MM (required)")
	add.Flags().StringVar(&m.StartDate, "start", "", "First day, YYYY-MM-DD (default today)")
	add.Flags().StringVar(&m.EndDate, "end", "", "Last day, YYYY-MM-DD (default open-ended)")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("times")

	list := &cobra.Command{
		Use:   "list",
		Short: "List medication courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(func(svc *services) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tDOSAGE\tTIMES\tFROM\tTO")
				for _, med := range svc.journal.Medications() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\t%s\n", med.ID, med.Name, med.Dosage, med.Times, med.StartDate, med.EndDate)
				}
				return w.Flush()
			})
		},
	}

	cmd.AddCommand(add, list, removeCmd("Remove a medication course", c, func(svc *services, id string) error {
		return svc.journal.RemoveMedication(id)
	}))
	return cmd
}

func (c *cli) appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appt"},
		Short:   "Manage appointments",
	}

	var a engine.Appointment
	var at string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an appointment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(func(svc *services) error {
				when, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("%s: %q", config.ErrInvalidTime, at)
				}
				a.DateTime = when
				saved, err := svc.journal.AddAppointment(a)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", saved.ID, saved.Title)
				return nil
			})
		},
	}
	add.Flags().StringVar(&a.Title, "title", "", "Title (required)")
	add.Flags().StringVar(&at, "at", "", "Start time, RFC3339 (required)")
	add.Flags().StringVar(&a.Location, "location", "", "Location")
	add.Flags().StringVar(&a.Doctor, "doctor", "", "Doctor")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("at")

	list := &cobra.Command{
		Use:   "list",
		Short: "List appointments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withServices(func(svc *services) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tWHEN\tTITLE\tLOCATION\tDOCTOR")
				for _, appt := range svc.journal.Appointments() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", appt.ID, appt.DateTime.Local().Format(config.DateTimeFormatDisplay), appt.Title, appt.Location, appt.Doctor)
				}
				return w.Flush()
			})
		},
	}

	cmd.AddCommand(add, list, removeCmd("Remove an appointment", c, func(svc *services, id string) error {
		return svc.journal.RemoveAppointment(id)
	}))
	return cmd
}

func removeCmd(short string, c *cli, remove func(svc *services, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withServices(func(svc *services) error {
				if err := remove(svc, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}
