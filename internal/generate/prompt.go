package generate

import (
	"fmt"
	"strings"
)

// contextPrompt grounds the answer in retrieved records. Snippets are
// injected verbatim so the model can quote exact commands and part
// numbers from past resolutions.
func contextPrompt(query string, snippets []ContextSnippet) string {
	var b strings.Builder
	b.WriteString("You are a network infrastructure troubleshooting assistant.\n")
	b.WriteString("Below are resolved past issues similar to the user's problem.\n\n")

	for i, s := range snippets {
		fmt.Fprintf(&b, "Past issue %d:\n", i+1)
		if s.ProblemText != "" {
			fmt.Fprintf(&b, "Problem: %s\n", s.ProblemText)
		}
		if s.SolutionText != "" {
			fmt.Fprintf(&b, "Resolution: %s\n", s.SolutionText)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User's problem: %s\n\n", query)
	b.WriteString("Using the past issues above, give 3 to 5 numbered troubleshooting steps. ")
	b.WriteString("Prefer the documented resolutions where they apply. Be specific and concise.")
	return b.String()
}

// generalPrompt asks for diagnostic guidance with no corpus context.
func generalPrompt(query string) string {
	var b strings.Builder
	b.WriteString("You are a network infrastructure troubleshooting assistant.\n\n")
	fmt.Fprintf(&b, "User's problem: %s\n\n", query)
	b.WriteString("No matching past issues were found. Give 3 to 5 numbered general ")
	b.WriteString("diagnostic steps to isolate the problem. Be specific and concise.")
	return b.String()
}

// FallbackSteps is returned when generation itself is unavailable, so a
// query always gets actionable guidance.
func FallbackSteps() []string {
	return []string{
		"Check physical connections: cables, ports, link and power LEDs.",
		"Verify the device has a valid IP configuration and can reach its gateway.",
		"Review recent configuration changes and roll back anything unexpected.",
		"Check device logs for interface errors, drops, or authentication failures.",
		"Power cycle the affected device and re-test; escalate if the issue persists.",
	}
}
