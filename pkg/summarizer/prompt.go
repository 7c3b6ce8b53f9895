package summarizer

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert teacher with deep knowledge of every school subject: science, mathematics, physics, history, languages and programming. You explain lessons clearly and always answer with a single JSON object and nothing else.`

// BuildPrompt renders the user prompt for req
func BuildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("Task: summarize and explain a lesson based on its title.\n\n")

	b.WriteString("Lesson details:\n")
	fmt.Fprintf(&b, "- Title/topic: %q\n", req.Topic)
	fmt.Fprintf(&b, "- Subject: %q\n", req.Subject)
	fmt.Fprintf(&b, "- Grade level: %q\n\n", req.GradeLevel)

	b.WriteString("Strict instructions:\n")
	fmt.Fprintf(&b, "1. Level of detail: %s (about %d words).\n", lengthLabel(req.Length), req.Length.Words())
	fmt.Fprintf(&b, "2. Key concepts: extract exactly %d essential concepts.\n", req.ConceptCount)
	b.WriteString("3. Explaining each key concept:\n")
	b.WriteString("   - The explanation must be detailed and clear.\n")
	b.WriteString("   - Every concept MUST include a worked or illustrative example.\n")
	b.WriteString("   - Use Markdown inside the \"explanation\" field: **bold** for important words, bullet lists to break up long paragraphs, and start the example with \\n> **Example:** so it stands out.\n")
	b.WriteString("4. Adapt to the subject:\n")
	b.WriteString("   - Science and mathematics: state equations and laws clearly and show the solution steps in the example.\n")
	b.WriteString("   - Foreign languages: explain the rules with examples in the target language and their translations.\n")
	b.WriteString("5. If you cannot find precise information about the lesson, give a general explanation of the terms in the title instead of stopping.\n\n")

	b.WriteString("Respond with JSON only, containing these fields:\n")
	b.WriteString("- title: (string) an engaging title for the lesson.\n")
	b.WriteString("- introduction: (string) an introduction and general overview.\n")
	b.WriteString(`- keyConcepts: (array) objects { "concept": "name", "explanation": "detailed explanation + example (Markdown)" }.` + "\n")
	if req.Glossary() {
		b.WriteString(`- terminology: (array) objects { "term": "term", "definition": "definition" } for the 5 hardest terms in the lesson.` + "\n")
	} else {
		b.WriteString("- terminology: (array) leave it completely empty [].\n")
	}
	b.WriteString("- studyTips: (array of strings) 3 study tips.\n")

	return b.String()
}

func lengthLabel(l Length) string {
	switch l {
	case LengthShort:
		return "very brief and concise"
	case LengthLong:
		return "detailed and comprehensive"
	default:
		return "medium length"
	}
}
