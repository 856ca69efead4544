package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/kioku/internal/engine"
	"github.com/verte-zerg/kioku/internal/model"
	"github.com/verte-zerg/kioku/internal/problem"
	"github.com/verte-zerg/kioku/internal/transfer"
)

const defaultListWidth = 100

var (
	addCategories  string
	addLast        bool
	addExplanation string

	listCategories string
	listType       string

	editHTML        string
	editQuestion    string
	editAnswer      string
	editSide        string
	editExplanation string
	editCategories  string
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a problem",
	}
	cmd.PersistentFlags().StringVar(&addCategories, "categories", "", "comma-separated categories")
	cmd.PersistentFlags().BoolVar(&addLast, "last", false, "reuse the categories of the last added problem")

	cmd.AddCommand(&cobra.Command{
		Use:   "mask [html|-]",
		Short: "Add a fill-in-the-blank problem; <span class=\"mask\"> marks blanks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := argOrStdin(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return addProblem(cmd, func(cats []string, now time.Time) (model.Problem, error) {
				return problem.NewMask(body, cats, now)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "qa <question> <answer>",
		Short: "Add a question/answer problem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return addProblem(cmd, func(cats []string, now time.Time) (model.Problem, error) {
				return problem.NewQA(args[0], args[1], cats, now)
			})
		},
	})
	oxCmd := &cobra.Command{
		Use:   "ox <statement> <o|x>",
		Short: "Add a true/false problem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			side, err := transfer.ParseSide(args[1])
			if err != nil {
				return err
			}
			return addProblem(cmd, func(cats []string, now time.Time) (model.Problem, error) {
				return problem.NewOX(args[0], side, addExplanation, cats, now)
			})
		},
	}
	oxCmd.Flags().StringVar(&addExplanation, "explanation", "", "explanation shown after answering")
	cmd.AddCommand(oxCmd)
	return cmd
}

func addProblem(cmd *cobra.Command, build func(cats []string, now time.Time) (model.Problem, error)) error {
	return withEngine(0, func(ctx context.Context, eng *engine.Engine) error {
		cats := problem.ParseCategories(addCategories)
		if addLast {
			cats = problem.UnionCategories(eng.LastCategories(), cats)
		}
		p, err := build(cats, time.Now())
		if err != nil {
			return fmt.Errorf("failed to create problem: %w", err)
		}
		stored, err := eng.Add(ctx, p)
		if err != nil {
			return fmt.Errorf("failed to add problem: %w", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "added %s [%s] %s\n", stored.ID, stored.Type, stored.Summary)
		return err
	})
}

func argOrStdin(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List problems",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
	cmd.Flags().StringVar(&listCategories, "category", "", "comma-separated categories (any match)")
	cmd.Flags().StringVar(&listType, "type", "", "problem type (mask, qa, ox)")
	return cmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	var t model.ProblemType
	if listType != "" {
		t = model.ProblemType(strings.ToLower(listType))
		if !t.Valid() {
			return fmt.Errorf("unknown problem type %q (use mask, qa or ox)", listType)
		}
	}
	return withEngine(0, func(_ context.Context, eng *engine.Engine) error {
		problems, total := eng.List(parseList(listCategories), t)
		out := cmd.OutOrStdout()
		if err := writeProblems(out, problems, listWidth()); err != nil {
			return err
		}
		if total > len(problems) {
			if _, err := fmt.Fprintf(out, "showing %d of %d\n", len(problems), total); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	})
}

func listWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return defaultListWidth
}

// writeProblems prints one line per problem, truncated to width columns.
func writeProblems(w io.Writer, problems []model.Problem, width int) error {
	if len(problems) == 0 {
		_, err := fmt.Fprintln(w, "No problems.")
		return err
	}
	for _, p := range problems {
		cats := runewidth.Truncate(strings.Join(p.Categories, ","), 20, "…")
		line := fmt.Sprintf("%-24s %-4s %5.1f  %s %s",
			p.ID, p.Type, p.Score, runewidth.FillRight(cats, 20), p.Summary)
		if width > 0 {
			line = runewidth.Truncate(line, width, "…")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(0, func(_ context.Context, eng *engine.Engine) error {
				p, ok := eng.Get(args[0])
				if !ok {
					return fmt.Errorf("%w: %s", problem.ErrNotFound, args[0])
				}
				return writeProblemDetail(cmd.OutOrStdout(), p)
			})
		},
	}
}

func writeProblemDetail(w io.Writer, p model.Problem) error {
	lines := []string{
		fmt.Sprintf("ID: %s", p.ID),
		fmt.Sprintf("Type: %s", p.Type),
		fmt.Sprintf("Categories: %s", strings.Join(p.Categories, ", ")),
	}
	switch p.Type {
	case model.TypeQA:
		lines = append(lines, "Question: "+p.Question, "Answer: "+p.Answer)
	case model.TypeOX:
		lines = append(lines, "Statement: "+p.Question, "Correct: "+strings.ToUpper(string(p.Correct)))
		if p.Explanation != "" {
			lines = append(lines, "Explanation: "+p.Explanation)
		}
	default:
		lines = append(lines, "Text: "+problem.PlainText(p.HTML, true), "Blanks: "+strings.Join(p.Answers, " | "))
	}
	lines = append(lines,
		fmt.Sprintf("Score: %.1f", p.Score),
		fmt.Sprintf("Answered: %d (%d correct)", p.AnswerCount, p.CorrectCount),
		fmt.Sprintf("Created: %s", formatMillis(p.CreatedAt)),
		fmt.Sprintf("Updated: %s", formatMillis(p.UpdatedAt)),
	)
	if p.Deleted {
		lines = append(lines, "Deleted: yes")
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a problem; unset flags keep the current value",
		Args:  cobra.ExactArgs(1),
		RunE:  runEditCmd,
	}
	cmd.Flags().StringVar(&editHTML, "html", "", "mask HTML body")
	cmd.Flags().StringVar(&editQuestion, "question", "", "question or ox statement")
	cmd.Flags().StringVar(&editAnswer, "answer", "", "qa answer")
	cmd.Flags().StringVar(&editSide, "side", "", "ox correct side (o or x)")
	cmd.Flags().StringVar(&editExplanation, "explanation", "", "ox explanation")
	cmd.Flags().StringVar(&editCategories, "categories", "", "comma-separated categories")
	return cmd
}

func runEditCmd(cmd *cobra.Command, args []string) error {
	return withEngine(0, func(ctx context.Context, eng *engine.Engine) error {
		p, ok := eng.Get(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", problem.ErrNotFound, args[0])
		}
		content, cats, err := editedContent(cmd, p)
		if err != nil {
			return err
		}
		updated, err := eng.Edit(ctx, p.ID, content, cats)
		if err != nil {
			return fmt.Errorf("failed to edit problem: %w", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated %s %s\n", updated.ID, updated.Summary)
		return err
	})
}

func editedContent(cmd *cobra.Command, p model.Problem) (model.Content, []string, error) {
	c := model.Content{
		HTML:        p.HTML,
		Question:    p.Question,
		Answer:      p.Answer,
		Correct:     p.Correct,
		Explanation: p.Explanation,
	}
	flags := cmd.Flags()
	if flags.Changed("html") {
		c.HTML = editHTML
	}
	if flags.Changed("question") {
		c.Question = editQuestion
	}
	if flags.Changed("answer") {
		c.Answer = editAnswer
	}
	if flags.Changed("side") {
		side, err := transfer.ParseSide(editSide)
		if err != nil {
			return model.Content{}, nil, err
		}
		c.Correct = side
	}
	if flags.Changed("explanation") {
		c.Explanation = editExplanation
	}
	cats := p.Categories
	if flags.Changed("categories") {
		cats = problem.ParseCategories(editCategories)
	}
	return c, cats, nil
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Move problems to the trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(0, func(ctx context.Context, eng *engine.Engine) error {
				for _, id := range args {
					if err := eng.Delete(ctx, id); err != nil {
						return fmt.Errorf("failed to delete %s: %w", id, err)
					}
					if _, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id); err != nil {
						return fmt.Errorf("failed to write output: %w", err)
					}
				}
				return nil
			})
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [id...]",
		Short: "Restore problems from the trash; without ids lists the trash",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(0, func(ctx context.Context, eng *engine.Engine) error {
				out := cmd.OutOrStdout()
				if len(args) == 0 {
					return writeProblems(out, eng.Deleted(), listWidth())
				}
				for _, id := range args {
					if err := eng.Restore(ctx, id); err != nil {
						return fmt.Errorf("failed to restore %s: %w", id, err)
					}
					if _, err := fmt.Fprintf(out, "restored %s\n", id); err != nil {
						return fmt.Errorf("failed to write output: %w", err)
					}
				}
				return nil
			})
		},
	}
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories of live problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(0, func(_ context.Context, eng *engine.Engine) error {
				for _, c := range eng.Categories() {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), c); err != nil {
						return fmt.Errorf("failed to write output: %w", err)
					}
				}
				return nil
			})
		},
	}
}
