package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyIntentNoSignal(t *testing.T) {
	mode, confidence := ClassifyIntent("what's the weather like today?")
	require.Equal(t, ModeDefault, mode)
	require.Zero(t, confidence)
}

func TestClassifyIntentDeveloper(t *testing.T) {
	mode, confidence := ClassifyIntent("help me debug this code, the test keeps failing")
	require.Equal(t, ModeDeveloper, mode)
	require.GreaterOrEqual(t, confidence, ModeSwitchConfidence)
}

func TestClassifyIntentSingleHitStaysBelowThreshold(t *testing.T) {
	mode, confidence := ClassifyIntent("can you explain something?")
	require.Equal(t, ModeResearcher, mode)
	require.Less(t, confidence, ModeSwitchConfidence)
}

func TestClassifyIntentConfidenceCapped(t *testing.T) {
	_, confidence := ClassifyIntent(
		"write code to build, test, deploy and debug the api, then implement and refactor the script")
	require.LessOrEqual(t, confidence, 0.95)
}

func TestGetModeFallsBack(t *testing.T) {
	require.Equal(t, ModeDefault, GetMode("no-such-mode").Name)
	require.Equal(t, ModeHacker, GetMode(ModeHacker).Name)
}
