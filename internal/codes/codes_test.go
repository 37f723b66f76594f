package codes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapperCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want int
	}{
		{"deep_dive", AudioFormatDeepDive},
		{"DEEP_DIVE", AudioFormatDeepDive},
		{"debate", AudioFormatDebate},
	}
	for _, tt := range tests {
		code, err := AudioFormats.Code(tt.name)
		require.NoError(t, err)
		require.Equal(t, tt.want, code)
	}
}

func TestMapperCodeUnknownListsOptions(t *testing.T) {
	t.Parallel()

	_, err := ResearchModes.Code("turbo")
	require.Error(t, err)
	require.Contains(t, err.Error(), "turbo")
	require.Contains(t, err.Error(), "deep, fast")
}

func TestMapperName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "web", ResultTypes.Name(ResultTypeWeb))
	require.Equal(t, "deep_report", ResultTypes.Name(ResultTypeDeepReport))
	require.Equal(t, "unknown", ResultTypes.Name(999))
}

func TestMapperNamesSorted(t *testing.T) {
	t.Parallel()

	names := ChatGoals.Names()
	require.Equal(t, []string{"custom", "default", "learning_guide"}, names)
}
