package orchestrator

import "strings"

const basePrompt = `You are an AI assistant operating inside a sandboxed execution environment.
You have a private workspace for files and a shell for running commands; anything you are told about them came from real tool output, not guesses.
Be direct and concrete. When the user asks for code, produce complete, runnable code.`

// BuildSystemPrompt assembles the per-turn system prompt: the base identity,
// the active mode's instructions, and whatever was recalled about the user
// and the conversation.
func BuildSystemPrompt(mode Mode, mc *MemoryContext) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\n## Current mode: ")
	b.WriteString(mode.Name)
	b.WriteString("\n")
	b.WriteString(mode.Instructions)

	if mc != nil {
		if section := mc.serialize(); section != "" {
			b.WriteString("\n\n")
			b.WriteString(section)
		}
	}
	return b.String()
}
