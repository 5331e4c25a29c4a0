package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"teachback/internal/quiz"
	"teachback/internal/session"
	"teachback/internal/teachback"
)

// Safety flag texts.
const (
	urgentContactText    = "Text suggests the need for urgent medical contact."
	contraindicationText = "A contraindication (a reason not to use a treatment) was mentioned."
	discussFlagsText     = "Please discuss these with your healthcare provider."
)

func renderSnapshot(w io.Writer, snap session.Snapshot, colorize bool) {
	if line := renderNotice(snap.Notice, colorize); line != "" {
		fmt.Fprintln(w, line)
	}
	if snap.Demo {
		fmt.Fprintln(w, renderStatusLine("Mode", statusInfo, "Demo content (nothing is sent to the model)", colorize))
	}
	switch {
	case snap.Status.Busy():
		fmt.Fprintln(w, renderStatusLine("Status", statusInfo, statusMessage(snap.Status), colorize))
		return
	case snap.Status == session.Failed && snap.Err != nil:
		fmt.Fprintln(w, renderStatusLine("Status", statusError, "Generation failed", colorize))
		return
	case !snap.HasContent():
		fmt.Fprintln(w, renderStatusLine("Status", statusInfo, "No teach-back content yet. Run 'teachback generate' or load a session.", colorize))
		return
	}

	for _, line := range classificationLines(snap, colorize) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
	renderContent(w, *snap.Content, colorize)
	fmt.Fprintln(w)
	renderQuiz(w, snap, colorize)
}

func statusMessage(status session.Status) string {
	switch status {
	case session.Classifying:
		return "Analyzing your document..."
	case session.Generating:
		return "Creating simplified explanation and quiz..."
	}
	return string(status)
}

func classificationLines(snap session.Snapshot, colorize bool) []string {
	var lines []string
	if snap.Classification != nil {
		c := snap.Classification
		message := fmt.Sprintf("%s (%.0f%% confidence)", c.Context.DisplayName(), c.Confidence*100)
		kind := statusOK
		if snap.LowConfidence {
			kind = statusWarn
			message += "; showing general guidance. Use 'teachback override' to pick a category."
		}
		lines = append(lines, renderStatusLine("Document type", kind, message, colorize))
		if len(c.UnknownReasons) > 0 {
			lines = append(lines, renderStatusLine("Uncertain because", statusInfo, strings.Join(c.UnknownReasons, "; "), colorize))
		}
	}
	if snap.Override != "" {
		lines = append(lines, renderStatusLine("Override", statusInfo, snap.Override.DisplayName(), colorize))
	}
	if grade := snap.Metrics.ReadingGradeAfter; grade != nil {
		lines = append(lines, renderStatusLine("Reading level", statusInfo, fmt.Sprintf("grade %d", *grade), colorize))
	}
	return lines
}

func renderContent(w io.Writer, content teachback.Content, colorize bool) {
	for _, line := range renderSectionHeader("Simplified Instructions", colorize) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, strings.TrimSpace(content.SimplifiedText))

	if details, ok := content.Details(); ok {
		rows := make([][]string, 0)
		for _, field := range details.Fields() {
			if len(field.Values) == 0 {
				continue
			}
			rows = append(rows, []string{field.Label, strings.Join(field.Values, "\n")})
		}
		if len(rows) > 0 {
			fmt.Fprintln(w)
			for _, line := range renderSectionHeader(details.Category().DisplayName()+" Details", colorize) {
				fmt.Fprintln(w, line)
			}
			fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, nil))
		}
	}

	if lines := safetyFlagLines(content.SafetyFlags); len(lines) > 0 {
		fmt.Fprintln(w)
		for _, line := range renderSectionHeader("Safety Flags", colorize) {
			fmt.Fprintln(w, line)
		}
		for _, line := range lines {
			if colorize {
				line = ansiRed + line + ansiReset
			}
			fmt.Fprintln(w, line)
		}
	}
}

// safetyFlagLines lists the flagged conditions, or nothing when none apply.
func safetyFlagLines(flags teachback.SafetyFlags) []string {
	if !flags.Any() {
		return nil
	}
	var lines []string
	if flags.UrgentContact {
		lines = append(lines, "- "+urgentContactText)
	}
	if flags.ContraindicationMentioned {
		lines = append(lines, "- "+contraindicationText)
	}
	for _, phrase := range flags.RedFlags {
		lines = append(lines, fmt.Sprintf("- The phrase %q was found.", phrase))
	}
	return append(lines, discussFlagsText)
}

func renderQuiz(w io.Writer, snap session.Snapshot, colorize bool) {
	content := snap.Content
	title := fmt.Sprintf("Check Your Understanding (attempt %d, %s)", max(snap.Metrics.Attempts, 1), session.FormatElapsed(snap.ElapsedSeconds))
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(w, line)
	}

	results := make(map[int]quiz.Result, len(snap.Results))
	for _, r := range snap.Results {
		results[r.Index] = r
	}

	for i, item := range content.QA {
		fmt.Fprintf(w, "%d. %s\n", i+1, item.Question)
		var options []string
		if i < len(snap.Options) {
			options = snap.Options[i]
		}
		chosen := snap.Answers[i]
		for n, option := range options {
			marker := " "
			if option == chosen {
				marker = "*"
			}
			fmt.Fprintf(w, "   %s %d) %s\n", marker, n+1, option)
		}
		if r, ok := results[i]; ok {
			fmt.Fprintln(w, resultLine(r, colorize))
		}
	}

	fmt.Fprintln(w)
	switch snap.QuizState {
	case quiz.Mastered:
		message := "All answers correct."
		if t := snap.Metrics.MasteryTimeSeconds; t != nil {
			message = fmt.Sprintf("All answers correct in %s.", session.FormatElapsed(*t))
		}
		fmt.Fprintln(w, renderStatusLine("Quiz", statusOK, message, colorize))
	case quiz.Submitted:
		fmt.Fprintln(w, renderStatusLine("Quiz", statusWarn, fmt.Sprintf("%d of %d correct. Review below, then run 'teachback quiz retry'.", countCorrect(snap.Results), len(snap.Results)), colorize))
		renderRemediation(w, content.Remediation, colorize)
	default:
		fmt.Fprintln(w, renderStatusLine("Quiz", statusInfo, fmt.Sprintf("%d of %d answered. Use 'teachback quiz answer <question> <option>' then 'teachback quiz submit'.", len(snap.Answers), len(content.QA)), colorize))
	}
}

func resultLine(r quiz.Result, colorize bool) string {
	if r.Correct {
		line := "   Correct. " + r.Rationale
		if colorize {
			return ansiGreen + line + ansiReset
		}
		return line
	}
	chosen := r.Chosen
	if chosen == "" {
		chosen = "(no answer)"
	}
	line := fmt.Sprintf("   Not quite. You chose %q; the answer is %q. %s", chosen, r.Answer, r.Rationale)
	if colorize {
		return ansiYellow + line + ansiReset
	}
	return line
}

func renderRemediation(w io.Writer, remediation teachback.Remediation, colorize bool) {
	if strings.TrimSpace(remediation.IfWrong) == "" && len(remediation.Examples) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, line := range renderSectionHeader("Let's Review", colorize) {
		fmt.Fprintln(w, line)
	}
	if text := strings.TrimSpace(remediation.IfWrong); text != "" {
		fmt.Fprintln(w, text)
	}
	for _, example := range remediation.Examples {
		fmt.Fprintln(w, "- "+example)
	}
}

func countCorrect(results []quiz.Result) int {
	n := 0
	for _, r := range results {
		if r.Correct {
			n++
		}
	}
	return n
}

// parseIndex converts a 1-based CLI argument into a 0-based index below limit.
func parseIndex(raw, what string, limit int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > limit {
		return 0, fmt.Errorf("%s must be a number between 1 and %d", what, limit)
	}
	return n - 1, nil
}
