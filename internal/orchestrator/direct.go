package orchestrator

import (
	"regexp"
	"strings"
)

// directOpKind enumerates the direct operations the classifier recognizes.
// Routing these straight to the workspace or process runtime skips the
// provider round-trip; it is a latency and cost optimization, not a
// correctness requirement.
type directOpKind int

const (
	opNone directOpKind = iota
	opRunCommand
	opReadFile
	opListFiles
)

type directOp struct {
	kind directOpKind
	arg  string // command line or file path
}

var (
	runPattern  = regexp.MustCompile(`(?i)^(?:run|execute|exec)\s*(?:command)?[:\s]\s*(.+)$`)
	readPattern = regexp.MustCompile(`(?i)^(?:read|show|cat|open)\s+(?:the\s+)?file[:\s]\s*(\S+)$`)
	listPattern = regexp.MustCompile(`(?i)^(?:list|show)\s+(?:the\s+)?(?:files|workspace|directory)\.?$`)
	backtick    = regexp.MustCompile("^`([^`]+)`$")
)

// classifyDirect matches text against the direct file/process operation
// patterns. Anything ambiguous falls through to the model path (opNone).
func classifyDirect(text string) directOp {
	trimmed := strings.TrimSpace(text)

	if m := runPattern.FindStringSubmatch(trimmed); m != nil {
		command := strings.TrimSpace(m[1])
		if b := backtick.FindStringSubmatch(command); b != nil {
			command = b[1]
		}
		return directOp{kind: opRunCommand, arg: command}
	}
	if m := readPattern.FindStringSubmatch(trimmed); m != nil {
		return directOp{kind: opReadFile, arg: strings.Trim(m[1], "`\"'")}
	}
	if listPattern.MatchString(trimmed) {
		return directOp{kind: opListFiles}
	}
	return directOp{kind: opNone}
}
