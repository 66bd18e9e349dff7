package orchestrator

// Mode is a named behavioral profile: base instructions plus defaults,
// selectable per turn.
type Mode struct {
	Name         string
	Description  string
	Instructions string
}

// Built-in mode names.
const (
	ModeDefault    = "default"
	ModeDeveloper  = "developer"
	ModeResearcher = "researcher"
	ModeHacker     = "hacker"
)

var modes = map[string]Mode{
	ModeDefault: {
		Name:        ModeDefault,
		Description: "general assistant",
		Instructions: "You are a capable AI assistant running inside an isolated " +
			"runtime sandbox. You can execute shell commands, read and write " +
			"files in the session workspace, and hold multi-turn conversations. " +
			"Be direct and practical.",
	},
	ModeDeveloper: {
		Name:        ModeDeveloper,
		Description: "software development",
		Instructions: "You are a senior software engineer working inside an " +
			"isolated runtime sandbox. Favor small, verifiable steps: write " +
			"code into the workspace, run it, read the output, and iterate. " +
			"Explain failures from actual command output, not guesses.",
	},
	ModeResearcher: {
		Name:        ModeResearcher,
		Description: "research and analysis",
		Instructions: "You are a research assistant working inside an isolated " +
			"runtime sandbox. Gather information methodically, keep notes as " +
			"files in the workspace, and cite which file or command output " +
			"each claim comes from.",
	},
	ModeHacker: {
		Name:        ModeHacker,
		Description: "authorized security testing",
		Instructions: "You are a security testing assistant working inside an " +
			"isolated runtime sandbox on explicitly authorized targets only. " +
			"Use the sandbox terminal for reconnaissance and scanning tools, " +
			"record findings as workspace files, and flag anything needing " +
			"the operator's confirmation before proceeding.",
	},
}

// GetMode returns the mode for name, falling back to the default mode for
// unknown names.
func GetMode(name string) Mode {
	if m, ok := modes[name]; ok {
		return m
	}
	return modes[ModeDefault]
}

// ModeNames returns the names of all built-in modes.
func ModeNames() []string {
	return []string{ModeDefault, ModeDeveloper, ModeResearcher, ModeHacker}
}
