package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"teachback/internal/chat"
	"teachback/internal/glossary"
)

func newChatCommand(ctx *commandContext) *cobra.Command {
	var saveFlag bool

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the chat helper about medical terms",
		Long: "With a message, asks once and prints the reply. Without one, reads questions line by line until EOF.\n" +
			"Replies that define a term can be saved to the glossary with --save.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx.newChat(cmd.Context())
			var g *glossary.Glossary
			if saveFlag {
				var err error
				if g, err = ctx.newGlossary(cmd.Context()); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			ask := func(message string) error {
				turn, err := streamReply(cmd.Context(), out, c, message)
				if err != nil {
					return err
				}
				return offerDefinition(cmd.Context(), out, g, turn)
			}

			if len(args) > 0 {
				return ask(strings.Join(args, " "))
			}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprint(out, "> ")
			for scanner.Scan() {
				if line := strings.TrimSpace(scanner.Text()); line != "" {
					if err := ask(line); err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), err)
					}
				}
				fmt.Fprint(out, "> ")
			}
			fmt.Fprintln(out)
			return scanner.Err()
		},
	}
	cmd.Flags().BoolVar(&saveFlag, "save", false, "Save defined terms to the glossary")
	return cmd
}

// streamReply sends message and writes reply fragments as they arrive.
// Replies that open with a JSON object are held back until they can be shown
// as a definition.
func streamReply(ctx context.Context, out io.Writer, c *chat.Chat, message string) (chat.Turn, error) {
	events, err := c.Send(ctx, message)
	if err != nil {
		return chat.Turn{}, err
	}
	var final chat.Event
	var held strings.Builder
	holding, decided := false, false
	for ev := range events {
		if ev.Done {
			final = ev
			continue
		}
		if !decided && strings.TrimSpace(ev.Delta) != "" {
			decided = true
			holding = strings.HasPrefix(strings.TrimSpace(ev.Delta), "{")
		}
		if holding || !decided {
			held.WriteString(ev.Delta)
			continue
		}
		if held.Len() > 0 {
			fmt.Fprint(out, held.String())
			held.Reset()
		}
		fmt.Fprint(out, ev.Delta)
	}
	turn := final.Turn
	switch {
	case final.Err != nil:
		fmt.Fprintln(out, turn.Text)
		return turn, final.Err
	case turn.Definition != nil:
		fmt.Fprintf(out, "%s: %s\n", turn.Definition.Term, turn.Definition.Definition)
	default:
		fmt.Fprintln(out, held.String())
	}
	return turn, nil
}

func offerDefinition(ctx context.Context, out io.Writer, g *glossary.Glossary, turn chat.Turn) error {
	if turn.Definition == nil {
		return nil
	}
	if g == nil {
		fmt.Fprintf(out, "Run 'teachback glossary add %q ...' or pass --save to keep this definition.\n", turn.Definition.Term)
		return nil
	}
	added, err := g.Add(ctx, *turn.Definition)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(out, "Saved %q to your glossary\n", turn.Definition.Term)
	} else {
		fmt.Fprintf(out, "%q is already in your glossary\n", turn.Definition.Term)
	}
	return nil
}
