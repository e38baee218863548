package cmd

import (
	"fmt"
	"strconv"

	"github.com/frahmantamala/pennytrack/internal/recurrence"
	"github.com/spf13/cobra"
)

var (
	ruleCategory  string
	ruleNote      string
	ruleFrequency string
	ruleStart     string
	upcomingDays  int
)

var recurringCmd = &cobra.Command{
	Use:     "recurring",
	Aliases: []string{"rec"},
	Short:   "Manage recurring expenses",
}

var recurringListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recurring expenses",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, _ *cobra.Command, _ []string) error {
		a.f.Rules(a.out, a.ledger.Rules.Rules())
		return nil
	}),
}

var recurringAddCmd = &cobra.Command{
	Use:   "add <amount>",
	Short: "Register a recurring expense without adding an entry now",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
		rule, err := a.ledger.Rules.Add(recurrence.CreateRuleDTO{
			Amount:    args[0],
			Category:  ruleCategory,
			Note:      ruleNote,
			Frequency: ruleFrequency,
			Start:     ruleStart,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s %s %s every %s, counting from %s\n",
			a.f.Good.Render("✓"), rule.Category, a.f.Amount(rule.Amount), rule.Frequency, a.f.Date(rule.LastMaterialized))
		return nil
	}),
}

var recurringDeleteCmd = &cobra.Command{
	Use:   "delete <number>",
	Short: "Delete a recurring expense by its number in the list",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
		position, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("rule number must be an integer, got %q", args[0])
		}
		removed, err := a.ledger.Rules.Remove(position)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s recurring %s %s removed\n", a.f.Good.Render("✓"), removed.Category, a.f.Amount(removed.Amount))
		return nil
	}),
}

var recurringUpcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Project the recurring expenses of the coming days",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, _ *cobra.Command, _ []string) error {
		occurrences, err := a.ledger.Rules.Upcoming(a.ledger.Today(a.ctx), upcomingDays)
		if err != nil {
			return err
		}
		a.f.Upcoming(a.out, occurrences)
		return nil
	}),
}

var recurringRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Add every recurring expense that is due today",
	Long:  `Runs the same pass as startup; useful with recurrence.run_on_start disabled.`,
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, _ []string) error {
		created, err := a.ledger.Rules.Run(a.ctx, a.ledger.Today(a.ctx))
		for _, e := range created {
			fmt.Fprintf(a.out, "%s %s %s (%s)\n", a.f.Good.Render("+"), a.f.Amount(e.Amount), e.Category, e.Note)
		}
		if err != nil {
			return err
		}
		if len(created) == 0 {
			fmt.Fprintln(a.out, a.f.Muted.Render("Nothing due."))
		}
		return nil
	}),
}

func init() {
	recurringAddCmd.Flags().StringVarP(&ruleCategory, "category", "c", "", "category (default Uncategorized)")
	recurringAddCmd.Flags().StringVarP(&ruleNote, "note", "n", "", "note for the generated entries")
	recurringAddCmd.Flags().StringVarP(&ruleFrequency, "frequency", "f", "monthly", "daily, weekly or monthly")
	recurringAddCmd.Flags().StringVar(&ruleStart, "start", "", "date the schedule counts from (default today)")

	recurringUpcomingCmd.Flags().IntVar(&upcomingDays, "days", 30, "how many days ahead to look")

	recurringCmd.AddCommand(recurringListCmd)
	recurringCmd.AddCommand(recurringAddCmd)
	recurringCmd.AddCommand(recurringDeleteCmd)
	recurringCmd.AddCommand(recurringUpcomingCmd)
	recurringCmd.AddCommand(recurringRunCmd)
}
