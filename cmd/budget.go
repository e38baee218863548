package cmd

import (
	"fmt"

	"github.com/frahmantamala/pennytrack/internal/budget"
	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage monthly category budgets",
}

var budgetSetCmd = &cobra.Command{
	Use:   "set <YYYY-MM> <category> <amount>",
	Short: "Set or replace the budget of a category for a month",
	Args:  cobra.ExactArgs(3),
	RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
		b, err := a.ledger.Budgets.Set(budget.SetBudgetDTO{Month: args[0], Category: args[1], Amount: args[2]})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s budget for %s in %s set to %s\n",
			a.f.Good.Render("✓"), b.Key.Category, b.Key.Month.Label(), a.f.Amount(b.Threshold))
		return nil
	}),
}

var budgetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every budget",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, _ *cobra.Command, _ []string) error {
		a.f.Budgets(a.out, a.ledger.Budgets.List())
		return nil
	}),
}

var budgetDeleteCmd = &cobra.Command{
	Use:   "delete <YYYY-MM:Category>",
	Short: "Delete a budget",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
		key, err := budget.ParseKey(args[0])
		if err != nil {
			return err
		}
		if err := a.ledger.Budgets.Delete(key); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s budget %s deleted\n", a.f.Good.Render("✓"), key)
		return nil
	}),
}

var budgetStatusCmd = &cobra.Command{
	Use:   "status [YYYY-MM]",
	Short: "Show spend against every budget of a month",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
		month, err := monthArg(a, args)
		if err != nil {
			return err
		}
		a.f.BudgetStatus(a.out, month, a.ledger.Budgets.MonthStatus(month))
		return nil
	}),
}

func init() {
	budgetCmd.AddCommand(budgetSetCmd)
	budgetCmd.AddCommand(budgetListCmd)
	budgetCmd.AddCommand(budgetDeleteCmd)
	budgetCmd.AddCommand(budgetStatusCmd)
}
