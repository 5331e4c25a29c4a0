package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"teachback/internal/teachback"
)

func newGlossaryCommand(ctx *commandContext) *cobra.Command {
	glossaryCmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage saved term definitions",
	}

	var jsonFlag bool
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := ctx.newGlossary(cmd.Context())
			if err != nil {
				return err
			}
			terms := g.Terms()
			if jsonFlag {
				return writeJSON(cmd, terms)
			}
			out := cmd.OutOrStdout()
			if len(terms) == 0 {
				fmt.Fprintln(out, "Your glossary is empty. Ask the chat helper to define a term, then save it.")
				return nil
			}
			fmt.Fprintln(out, renderTermTable(terms))
			return nil
		},
	}
	listCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")
	glossaryCmd.AddCommand(listCmd)

	glossaryCmd.AddCommand(&cobra.Command{
		Use:   "add <term> <definition>",
		Short: "Save a term",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := ctx.newGlossary(cmd.Context())
			if err != nil {
				return err
			}
			term := teachback.Term{Term: strings.TrimSpace(args[0]), Definition: strings.TrimSpace(strings.Join(args[1:], " "))}
			added, err := g.Add(cmd.Context(), term)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !added {
				fmt.Fprintf(out, "%q is already in your glossary\n", term.Term)
				return nil
			}
			fmt.Fprintf(out, "Saved %q to your glossary\n", term.Term)
			return nil
		},
	})

	glossaryCmd.AddCommand(&cobra.Command{
		Use:     "remove <term>",
		Aliases: []string{"rm"},
		Short:   "Remove a term",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := ctx.newGlossary(cmd.Context())
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			removed, err := g.Remove(cmd.Context(), name)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%q is not in your glossary", name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", name)
			return nil
		},
	})

	return glossaryCmd
}

func renderTermTable(terms []teachback.Term) string {
	rows := make([][]string, 0, len(terms))
	for _, t := range terms {
		rows = append(rows, []string{t.Term, t.Definition})
	}
	return renderTable([]string{"Term", "Definition"}, rows, nil)
}
