package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"teachback/internal/extract"
	"teachback/internal/pipeline"
	"teachback/internal/quiz"
	"teachback/internal/session"
	"teachback/internal/teachback"
	"teachback/internal/textutil"
)

// snapshotView is the --json shape of a session.
type snapshotView struct {
	SessionID      string                          `json:"session_id,omitempty"`
	Status         session.Status                  `json:"status"`
	Category       teachback.Category              `json:"category,omitempty"`
	LowConfidence  bool                            `json:"low_confidence"`
	Classification *teachback.ClassificationResult `json:"classification,omitempty"`
	Content        *teachback.Content              `json:"content,omitempty"`
	QuizState      quiz.State                      `json:"quiz_state"`
	Options        [][]string                      `json:"options,omitempty"`
	Answers        quiz.Answers                    `json:"answers,omitempty"`
	Attempts       int                             `json:"attempts"`
	ElapsedSeconds int                             `json:"elapsed_seconds"`
	MasterySeconds *int                            `json:"mastery_seconds,omitempty"`
}

func newSnapshotView(snap session.Snapshot) snapshotView {
	return snapshotView{
		SessionID:      snap.SessionID,
		Status:         snap.Status,
		Category:       snap.Category,
		LowConfidence:  snap.LowConfidence,
		Classification: snap.Classification,
		Content:        snap.Content,
		QuizState:      snap.QuizState,
		Options:        snap.Options,
		Answers:        snap.Answers,
		Attempts:       snap.Metrics.Attempts,
		ElapsedSeconds: snap.ElapsedSeconds,
		MasterySeconds: snap.Metrics.MasteryTimeSeconds,
	}
}

func printSnapshot(cmd *cobra.Command, snap session.Snapshot, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, newSnapshotView(snap))
	}
	out := cmd.OutOrStdout()
	renderSnapshot(out, snap, shouldColorize(out))
	return nil
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var textFlag string
	var fileFlag string
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Simplify a medical document and build a comprehension quiz",
		Long: "Classifies the document, then generates a plain-language explanation, a short quiz and safety flags.\n" +
			"Input comes from --text, --file (text, PDF or image) or standard input. The result is saved so quiz commands can continue it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := readSource(cmd.Context(), cmd.InOrStdin(), textFlag, fileFlag, cfg.Extract.PDFToTextCommand, int64(cfg.Extract.MaxImageMB)<<20)
			if err != nil {
				return err
			}
			s, err := ctx.newSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Generate(cmd.Context(), src); err != nil {
				return commandError(s.Snapshot(), err)
			}
			if err := s.Save(cmd.Context()); err != nil {
				return err
			}
			return printSnapshot(cmd, s.Snapshot(), jsonFlag)
		},
	}
	cmd.Flags().StringVarP(&textFlag, "text", "t", "", "Document text")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Document file (text, PDF, PNG, JPEG, WebP or HEIC)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")
	cmd.MarkFlagsMutuallyExclusive("text", "file")
	return cmd
}

// readSource resolves generate input: explicit text, a file, or stdin.
func readSource(ctx context.Context, stdin io.Reader, text, file, pdfBinary string, maxImageBytes int64) (pipeline.Source, error) {
	switch {
	case strings.TrimSpace(text) != "":
		return pipeline.Source{Text: text}, nil
	case strings.TrimSpace(file) != "":
		path := strings.TrimSpace(file)
		if extract.IsPDF(path) {
			body, err := extract.PDFText(ctx, pdfBinary, path)
			if err != nil {
				return pipeline.Source{}, err
			}
			return pipeline.Source{Text: body}, nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return pipeline.Source{}, fmt.Errorf("read %s: %w", path, err)
		}
		if extract.DetectImageType(data) != "" {
			image, err := extract.LoadImage(path, maxImageBytes)
			if err != nil {
				return pipeline.Source{}, err
			}
			return pipeline.Source{Image: image}, nil
		}
		return pipeline.Source{Text: string(data)}, nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return pipeline.Source{}, fmt.Errorf("read stdin: %w", err)
		}
		return pipeline.Source{Text: string(data)}, nil
	}
}

// commandError prefers the orchestrator's user-facing notice over the raw error.
func commandError(snap session.Snapshot, err error) error {
	if snap.Notice.Level == session.NoticeError && strings.TrimSpace(snap.Notice.Text) != "" {
		return fmt.Errorf("%s: %w", snap.Notice.Text, err)
	}
	return err
}

// loadSaved restores the saved session or reports that there is none.
func loadSaved(ctx context.Context, c *commandContext) (*session.Session, error) {
	s, err := c.newSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil {
		return nil, commandError(s.Snapshot(), err)
	}
	if !s.Snapshot().HasContent() {
		return nil, errors.New(session.NoticeNoSaved + " Run 'teachback generate' first.")
	}
	return s, nil
}

// mutateSaved loads the saved session, applies fn and saves the result.
func mutateSaved(cmd *cobra.Command, c *commandContext, fn func(*session.Session) error) error {
	s, err := loadSaved(cmd.Context(), c)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return commandError(s.Snapshot(), err)
	}
	if err := s.Save(cmd.Context()); err != nil {
		return err
	}
	return printSnapshot(cmd, s.Snapshot(), false)
}

func newOverrideCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "override <category>",
		Short: "Regenerate the saved session under a different document type",
		Long:  "Categories: " + categoryList(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := teachback.ParseCategory(args[0])
			if err != nil {
				return fmt.Errorf("%w (choose one of %s)", err, categoryList())
			}
			return mutateSaved(cmd, ctx, func(s *session.Session) error {
				return s.OverrideCategory(cmd.Context(), category)
			})
		},
	}
}

func categoryList() string {
	names := make([]string, 0)
	for _, c := range teachback.Selectable() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func newQuizCommand(ctx *commandContext) *cobra.Command {
	quizCmd := &cobra.Command{
		Use:   "quiz",
		Short: "Answer the comprehension quiz for the saved session",
	}

	quizCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the quiz and current answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSaved(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			return printSnapshot(cmd, s.Snapshot(), false)
		},
	})

	quizCmd.AddCommand(&cobra.Command{
		Use:   "answer <question> <option>",
		Short: "Select an option (both 1-based)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateSaved(cmd, ctx, func(s *session.Session) error {
				snap := s.Snapshot()
				q, err := parseIndex(args[0], "question", len(snap.Options))
				if err != nil {
					return err
				}
				opt, err := parseIndex(args[1], "option", len(snap.Options[q]))
				if err != nil {
					return err
				}
				return s.Answer(q, snap.Options[q][opt])
			})
		},
	})

	quizCmd.AddCommand(&cobra.Command{
		Use:   "submit",
		Short: "Check every answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateSaved(cmd, ctx, func(s *session.Session) error {
				_, err := s.Submit(cmd.Context())
				return err
			})
		},
	})

	quizCmd.AddCommand(&cobra.Command{
		Use:   "retry",
		Short: "Clear answers and reshuffle after a submitted attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateSaved(cmd, ctx, func(s *session.Session) error {
				return s.TryAgain()
			})
		},
	})

	return quizCmd
}

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the saved teach-back session",
	}

	var jsonFlag bool
	showCmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"load"},
		Short:   "Load and display the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Load(cmd.Context()); err != nil {
				return commandError(s.Snapshot(), err)
			}
			return printSnapshot(cmd, s.Snapshot(), jsonFlag)
		},
	}
	showCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")
	sessionCmd.AddCommand(showCmd)

	var keepInput bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.Context())
			if err != nil {
				return err
			}
			if keepInput {
				// Restore first so the input survives the reset.
				_ = s.Load(cmd.Context())
			}
			if err := s.Clear(cmd.Context(), keepInput); err != nil {
				return commandError(s.Snapshot(), err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderNotice(s.Snapshot().Notice, shouldColorize(out)))
			if keepInput && s.Snapshot().InputText != "" {
				fmt.Fprintln(out, s.Snapshot().InputText)
			}
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&keepInput, "keep-input", false, "Print the original document text after clearing")
	sessionCmd.AddCommand(clearCmd)

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "demo",
		Short: "Show the sample teach-back cycle without calling the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.LoadDemo(); err != nil {
				return err
			}
			return printSnapshot(cmd, s.Snapshot(), false)
		},
	})

	return sessionCmd
}

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	var export bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a shareable summary of the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			s, err := loadSaved(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			now := timeNow()
			snap := s.Snapshot()
			text, err := buildSummary(snap, now)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(outPath)
			if target == "" && export {
				target = filepath.Join(cfg.Paths.ExportDir, textutil.SummaryFileName(string(snap.Category), now.Format("20060102-150405")))
			}
			if target == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), text)
				return err
			}
			if err := writeTextFile(target, text); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Summary written to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the summary to this file")
	cmd.Flags().BoolVar(&export, "export", false, "Write the summary into the configured export directory")
	return cmd
}
