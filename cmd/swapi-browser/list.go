package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Sternrassler/swapi-client/pkg/category"
	"github.com/Sternrassler/swapi-client/pkg/coordinator"
	"github.com/spf13/cobra"
)

func newListCommand(flags *globalFlags) *cobra.Command {
	var (
		pages  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list <category>",
		Short: "Print the items of one category",
		Long: `Print the items of one category.

The category may be given by name (character, race, starship, planet) or by
its SWAPI collection (people, species, starships, planets).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := category.Parse(args[0])
			if err != nil {
				return err
			}
			if pages < 1 {
				return fmt.Errorf("--pages must be >= 1 (got %d)", pages)
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			if err := runList(cmd, a.coordinator, target, pages); err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), a.coordinator.Snapshot())
			}
			return printItems(cmd.OutOrStdout(), a.coordinator.Snapshot())
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to load")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full browser state as JSON")

	return cmd
}

// runList switches to target, waits for its first page and then loads up
// to pages-1 further pages.
func runList(cmd *cobra.Command, coord *coordinator.Coordinator, target category.Category, pages int) error {
	if err := coord.SwitchCategory(target); err != nil {
		return err
	}
	coord.Wait()

	res := coord.Resource(target).Get()
	if res.IsFailure() {
		return res.Err
	}

	list, ok := res.Value()
	if !ok || list.Meta().Next == "" {
		return nil
	}

	for i := 1; i < pages && coord.HasNext().Get(); i++ {
		coord.IncrementPage()
		if err := coord.LoadNextPage(cmd.Context()); err != nil {
			return err
		}
	}
	return nil
}

func printItems(w io.Writer, snap coordinator.Snapshot) error {
	for i, item := range snap.Items {
		if _, err := fmt.Fprintf(w, "%4d  %s\n", i+1, item.Title()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d %s item(s), page %d, more: %t\n",
		snap.Pagination.ListSize, snap.ActiveCategory, snap.Pagination.Page, snap.Pagination.HasNext)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
