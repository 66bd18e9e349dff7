package orchestrator

import "strings"

// ModeSwitchConfidence is the threshold above which a mode suggestion is
// surfaced to the caller. The suggestion is advisory: the pipeline never
// switches the active mode itself.
const ModeSwitchConfidence = 0.8

var intentKeywords = map[string][]string{
	ModeDeveloper: {
		"code", "compile", "debug", "function", "implement", "refactor",
		"bug", "test", "build", "deploy", "script", "program", "api",
	},
	ModeResearcher: {
		"research", "analyze", "investigate", "compare", "summarize",
		"explain", "study", "sources", "findings", "report",
	},
	ModeHacker: {
		"pentest", "vulnerability", "exploit", "nmap", "scan", "recon",
		"payload", "ctf", "security audit",
	},
}

// ClassifyIntent estimates the most likely mode for a message and a
// confidence in [0,1]. Confidence grows with the number of matched
// keywords; a single weak hit stays well below the switch threshold.
func ClassifyIntent(text string) (string, float64) {
	lowered := strings.ToLower(text)

	bestMode := ModeDefault
	bestHits := 0
	for mode, keywords := range intentKeywords {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestMode = mode
		}
	}

	if bestHits == 0 {
		return ModeDefault, 0
	}

	confidence := 0.5 + 0.15*float64(bestHits)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return bestMode, confidence
}
