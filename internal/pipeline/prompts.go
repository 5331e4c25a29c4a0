package pipeline

import (
	"fmt"
	"strings"

	"teachback/internal/teachback"
)

const classifySystemInstruction = `You are the intake step of the Teach-Back Engine. Decide which kind of patient document you are given.
- Choose exactly one context from: prescription, eob (explanation of benefits), prior_auth (prior authorization), discharge (discharge instructions), lab (lab result), unknown.
- Prefer "unknown" over a low-confidence guess. When you choose unknown, explain why in unknown_reasons.
- confidence is your probability (0 to 1) that context is correct.
- top_k lists up to three alternate categories (never "unknown") with scores, most likely first.
- Your entire output MUST be a single, valid JSON object that strictly adheres to the provided schema.`

const generateSystemInstruction = `You are the Teach-Back Engine. Your goal is to turn complex medical instructions into clear, simple language that a patient can easily understand and act on.
- Use clear, culturally sensitive language appropriate for a 6th–8th-grade reading level.
- NEVER invent clinical facts or information not present in the provided text. If a detail is ambiguous or missing, state that you cannot confirm it.
- Your entire output MUST be a single, valid JSON object that strictly adheres to the provided schema. Do not add any extra text or formatting outside of the JSON structure.
- Identify and highlight any "red-flag" phrases like "chest pain," "trouble breathing," "severe headache," etc., in the safety_flags.
- Create a quiz that tests the most critical actions or concepts the user needs to know. Never list the correct answer among the distractors.
- The remediation content should directly address common misunderstandings related to the quiz questions.`

func classifyInstruction(isImage bool) string {
	if isImage {
		return "Classify the medical document shown in this image."
	}
	return "Classify the following medical document:"
}

func generateInstruction(category teachback.Category, isImage bool) string {
	var b strings.Builder
	if isImage {
		b.WriteString("Please process the medical document shown in this image.")
	} else {
		b.WriteString("Please process the following medical instructions:")
	}
	fmt.Fprintf(&b, "\n\nThe document category is %q (%s). Treat this as authoritative: set context to %q and populate only domain.%s. Leave every other domain branch out.",
		category, category.DisplayName(), category, category)
	return b.String()
}
