package main

import (
	"fmt"
	"strings"
	"time"

	"teachback/internal/quiz"
	"teachback/internal/session"
)

const (
	disclaimerTitle = "Important Disclaimer"
	disclaimerBody  = "This educational tool does not replace professional medical advice, diagnosis, or treatment."
	disclaimerScope = "The information generated is based on the text you provide and is intended to simplify and clarify instructions, not to provide medical guidance. Always consult with a qualified healthcare professional for any health concerns or before making any decisions related to your health or treatment."
	emergencyText   = "For emergencies, call your local emergency number immediately."
	privacyText     = "Your text is sent to the configured AI provider for processing. Saved sessions and glossary terms stay on this computer."

	summaryFooter = "This summary is an educational tool and does not replace professional medical advice. Discuss this information with your healthcare provider to ensure you fully understand your care plan. " + emergencyText
	noRedFlags    = "No specific red-flag phrases were identified in the text provided."
)

func disclaimerText() string {
	return strings.Join([]string{disclaimerTitle, "", disclaimerBody, "", disclaimerScope, "", emergencyText, "", privacyText}, "\n")
}

// buildSummary renders the printable teach-back summary for a Ready snapshot.
func buildSummary(snap session.Snapshot, now time.Time) (string, error) {
	if snap.Content == nil {
		return "", fmt.Errorf("no teach-back content to summarize; generate or load a session first")
	}
	content := snap.Content
	var b strings.Builder
	fmt.Fprintln(&b, "Teach-Back Summary")
	fmt.Fprintf(&b, "Generated on: %s\n", now.Format("January 2, 2006 3:04 PM"))
	if snap.Category != "" {
		fmt.Fprintf(&b, "Document type: %s\n", snap.Category.DisplayName())
	}

	fmt.Fprintln(&b, "\nSimplified Instructions")
	fmt.Fprintln(&b, strings.TrimSpace(content.SimplifiedText))

	results := make(map[int]quiz.Result, len(snap.Results))
	for _, r := range snap.Results {
		results[r.Index] = r
	}
	fmt.Fprintln(&b, "\nQuiz Results")
	for i, item := range content.QA {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Question)
		answer := snap.Answers[i]
		if answer == "" {
			answer = "Not answered"
		}
		fmt.Fprintf(&b, "   Your Answer: %s\n", answer)
		if r, ok := results[i]; ok {
			if !r.Correct {
				fmt.Fprintf(&b, "   Correct Answer: %s\n", r.Answer)
			}
			if r.Rationale != "" {
				fmt.Fprintf(&b, "   Why: %s\n", r.Rationale)
			}
		}
	}
	fmt.Fprintf(&b, "Attempts: %d\n", max(snap.Metrics.Attempts, 1))
	if t := snap.Metrics.MasteryTimeSeconds; t != nil {
		fmt.Fprintf(&b, "Time to mastery: %s\n", session.FormatElapsed(*t))
	}
	if g := snap.Metrics.ReadingGradeAfter; g != nil {
		fmt.Fprintf(&b, "Reading level: grade %d\n", *g)
	}

	fmt.Fprintln(&b, "\nSafety Flags Noted")
	if lines := safetyFlagLines(content.SafetyFlags); len(lines) > 0 {
		for _, line := range lines {
			fmt.Fprintln(&b, line)
		}
	} else {
		fmt.Fprintln(&b, noRedFlags)
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, summaryFooter)
	return b.String(), nil
}
