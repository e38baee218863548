package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/frahmantamala/pennytrack/internal"
	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	entryCategory  string
	entryNote      string
	entryDate      string
	entryRecurring string
	entryAmount    string
	entryType      string

	listMonth    string
	listCategory string
	listType     string
	listLimit    int

	deleteYes bool

	searchCategory string
	searchFrom     string
	searchTo       string
	searchMin      string
	searchMax      string
	searchNote     string
	searchFuzzy    bool
	searchType     string
)

var addCmd = &cobra.Command{
	Use:   "add <amount>",
	Short: "Add an expense",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		return addEntry(a, cmd, args[0], entry.KindExpense)
	}),
}

var incomeCmd = &cobra.Command{
	Use:   "income <amount>",
	Short: "Add an income",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		return addEntry(a, cmd, args[0], entry.KindIncome)
	}),
}

// recentCategoryWindow is how many of the latest entries the category hint
// after an expense looks at.
const recentCategoryWindow = 10

func addEntry(a *app, cmd *cobra.Command, amount string, kind entry.Kind) error {
	known := a.ledger.Entries.Categories()
	recent := a.ledger.Entries.RecentCategories(recentCategoryWindow)

	added, rule, err := a.ledger.AddEntry(a.ctx, entry.CreateEntryDTO{
		Date:     entryDate,
		Amount:   amount,
		Category: entryCategory,
		Note:     entryNote,
		Kind:     kind,
	}, entryRecurring)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s %s %s added: %s on %s (id %s)\n",
		a.f.Good.Render("✓"), added.Category, kind, a.f.Amount(added.Amount), a.f.Date(added.Date), added.ID)
	if rule != nil {
		fmt.Fprintf(a.out, "  repeats %s\n", rule.Frequency)
	}

	if kind == entry.KindExpense && len(recent) > 0 && !contains(recent, added.Category) {
		fmt.Fprintln(a.out, a.f.Muted.Render("  recent categories: "+strings.Join(recent, ", ")))
	}
	if !contains(known, added.Category) {
		if similar := entry.SuggestCategory(added.Category, known); len(similar) > 0 {
			fmt.Fprintln(a.out, a.f.Muted.Render("  new category; existing similar ones: "+strings.Join(similar, ", ")))
		}
	}
	return nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries with totals",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, _ []string) error {
		var preds []entry.Predicate
		if listMonth != "" {
			m, err := date.ParseMonth(listMonth)
			if err != nil {
				return err
			}
			preds = append(preds, entry.InMonth(m))
		}
		if listCategory != "" {
			preds = append(preds, entry.CategoryFold(listCategory))
		}
		if listType != "" {
			kind, err := parseKind(listType)
			if err != nil {
				return err
			}
			preds = append(preds, entry.OfKind(kind))
		}

		entries := a.ledger.Entries.Query(preds...)
		if listLimit > 0 && len(entries) > listLimit {
			entries = entries[len(entries)-listLimit:]
		}
		a.f.Entries(a.out, entries)
		return nil
	}),
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of an entry",
	Long:  `Change the fields given as flags and keep the others.`,
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		var dto entry.UpdateEntryDTO
		flags := cmd.Flags()
		if flags.Changed("amount") {
			dto.Amount = &entryAmount
		}
		if flags.Changed("category") {
			dto.Category = &entryCategory
		}
		if flags.Changed("note") {
			dto.Note = &entryNote
		}
		if flags.Changed("date") {
			dto.Date = &entryDate
		}
		if flags.Changed("type") {
			kind := entry.Kind(strings.ToLower(entryType))
			dto.Kind = &kind
		}
		if dto.IsEmpty() {
			return fmt.Errorf("nothing to change; pass at least one of --amount, --category, --note, --date, --type")
		}

		updated, err := a.ledger.Entries.Update(a.ctx, args[0], dto)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s entry %s updated\n", a.f.Good.Render("✓"), updated.ID)
		a.f.Entries(a.out, []entry.Entry{*updated})
		return nil
	}),
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		e, err := a.ledger.Entries.Get(args[0])
		if err != nil {
			return err
		}
		if !deleteYes {
			a.f.Entries(a.out, []entry.Entry{*e})
			if !confirm(cmd, "Delete this entry?") {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}
		}
		if err := a.ledger.Entries.Remove(a.ctx, e.ID); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s entry %s deleted\n", a.f.Good.Render("✓"), e.ID)
		return nil
	}),
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find entries by category, date, amount, note or type",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, _ []string) error {
		preds, err := searchPredicates()
		if err != nil {
			return err
		}
		entries := a.ledger.Entries.Query(preds...)
		fmt.Fprintf(a.out, "Found %d matching entries\n", len(entries))
		a.f.Entries(a.out, entries)
		return nil
	}),
}

func searchPredicates() ([]entry.Predicate, error) {
	var preds []entry.Predicate
	if searchCategory != "" {
		preds = append(preds, entry.CategoryFold(searchCategory))
	}

	var from, to date.Date
	var err error
	if searchFrom != "" {
		if from, err = date.Parse(searchFrom); err != nil {
			return nil, internal.NewValidationFieldError("from", "from must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
	}
	if searchTo != "" {
		if to, err = date.Parse(searchTo); err != nil {
			return nil, internal.NewValidationFieldError("to", "to must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
	}
	if !from.IsZero() || !to.IsZero() {
		preds = append(preds, entry.Between(from, to))
	}

	lo, err := optionalAmount("min", searchMin)
	if err != nil {
		return nil, err
	}
	hi, err := optionalAmount("max", searchMax)
	if err != nil {
		return nil, err
	}
	if lo != nil || hi != nil {
		preds = append(preds, entry.AmountBetween(lo, hi))
	}

	if searchNote != "" {
		if searchFuzzy {
			preds = append(preds, entry.NoteMatches(searchNote))
		} else {
			preds = append(preds, entry.NoteContains(searchNote))
		}
	}
	if searchType != "" {
		kind, err := parseKind(searchType)
		if err != nil {
			return nil, err
		}
		preds = append(preds, entry.OfKind(kind))
	}
	return preds, nil
}

func optionalAmount(field, text string) (*decimal.Decimal, error) {
	if text == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return nil, internal.NewValidationFieldError(field, field+" must be a number", internal.ErrCodeInvalidAmount)
	}
	return &d, nil
}

func parseKind(s string) (entry.Kind, error) {
	switch k := entry.Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case entry.KindExpense, entry.KindIncome:
		return k, nil
	}
	return "", internal.NewValidationFieldError("type", "type must be expense or income", internal.ErrCodeInvalidKind)
}

func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s (y/N): ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func init() {
	for _, c := range []*cobra.Command{addCmd, incomeCmd} {
		c.Flags().StringVarP(&entryCategory, "category", "c", "", "category (default Uncategorized)")
		c.Flags().StringVarP(&entryNote, "note", "n", "", "free-text note")
		c.Flags().StringVarP(&entryDate, "date", "d", "", "date as YYYY-MM-DD (default today)")
	}
	addCmd.Flags().StringVarP(&entryRecurring, "recurring", "r", "", "also repeat this expense: daily, weekly or monthly")

	editCmd.Flags().StringVar(&entryAmount, "amount", "", "new amount")
	editCmd.Flags().StringVarP(&entryCategory, "category", "c", "", "new category")
	editCmd.Flags().StringVarP(&entryNote, "note", "n", "", "new note")
	editCmd.Flags().StringVarP(&entryDate, "date", "d", "", "new date as YYYY-MM-DD")
	editCmd.Flags().StringVar(&entryType, "type", "", "new type: expense or income")

	listCmd.Flags().StringVarP(&listMonth, "month", "m", "", "only entries of YYYY-MM")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "only entries of this category")
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "only expense or income entries")
	listCmd.Flags().IntVar(&listLimit, "last", 0, "show only the last N matching entries")

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "delete without asking")

	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "category, case-insensitive")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "first date, YYYY-MM-DD")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "last date, YYYY-MM-DD")
	searchCmd.Flags().StringVar(&searchMin, "min", "", "minimum amount")
	searchCmd.Flags().StringVar(&searchMax, "max", "", "maximum amount")
	searchCmd.Flags().StringVarP(&searchNote, "note", "n", "", "keyword in the note")
	searchCmd.Flags().BoolVar(&searchFuzzy, "fuzzy", false, "match the note keyword fuzzily")
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "", "expense or income")
}
