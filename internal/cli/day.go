package cli

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// dayCommand creates the day command for editing recorded counts.
func (c *CLI) dayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "List, record and delete day counts",
	}

	cmd.AddCommand(c.dayListCommand())
	cmd.AddCommand(c.dayAddCommand())
	cmd.AddCommand(c.dayDeleteCommand())

	return cmd
}

// dayListCommand creates the "day list" subcommand.
func (c *CLI) dayListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show recorded days",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.loadProject()
			if err != nil {
				return err
			}
			if len(p.Days) == 0 {
				printInfo("No days recorded yet")
				printNextStep("Record day 1", "llumina day add 1 120")
				return nil
			}
			fmt.Println(StyleTitle.Render(p.Name) + " " + StyleDim.Render(string(p.RevealMode)))
			fmt.Println(daysTable(p, p.LastDay()))
			printDetail("next day: %d", p.NextDay())
			return nil
		},
	}
}

// dayAddCommand creates the "day add" subcommand.
func (c *CLI) dayAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <day> <count>",
		Short: "Record the count of a day (replaces an existing record)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, count, err := parseDayCount(args[0], args[1])
			if err != nil {
				return err
			}
			p, err := c.loadProject()
			if err != nil {
				return err
			}
			_, existed := p.Day(day)
			rec := p.UpsertDay(day, count, time.Now().UTC())
			if err := c.saveProject(p); err != nil {
				return err
			}

			verb := "Recorded"
			if existed {
				verb = "Updated"
			}
			printSuccess("%s day %d: %s", verb, rec.Day, StyleNumber.Render(strconv.FormatFloat(rec.Count, 'f', -1, 64)))
			printDetail("shown as %s · %s px", strconv.FormatFloat(p.Display(day, count), 'f', -1, 64), groupDigits(p.PixelsFor(p.Display(day, count))))
			return nil
		},
	}
}

// dayDeleteCommand creates the "day delete" subcommand.
func (c *CLI) dayDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <day>",
		Aliases: []string{"rm"},
		Short:   "Delete the record of a day",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[0])
			if err != nil {
				return err
			}
			p, err := c.loadProject()
			if err != nil {
				return err
			}
			if !p.DeleteDay(day) {
				printWarning("Day %d is not recorded", day)
				return nil
			}
			if err := c.saveProject(p); err != nil {
				return err
			}
			printSuccess("Deleted day %d", day)
			return nil
		},
	}
}

func parseDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 {
		return 0, fmt.Errorf("invalid day %q (must be an integer >= 1)", s)
	}
	return day, nil
}

func parseDayCount(dayArg, countArg string) (int, float64, error) {
	day, err := parseDay(dayArg)
	if err != nil {
		return 0, 0, err
	}
	count, err := strconv.ParseFloat(countArg, 64)
	if err != nil || count < 0 || math.IsNaN(count) || math.IsInf(count, 0) {
		return 0, 0, fmt.Errorf("invalid count %q (must be a non-negative number)", countArg)
	}
	return day, count, nil
}
