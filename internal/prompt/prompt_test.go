package prompt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/statenlab/dossierzoeker/internal/prompt"
)

func TestCleanContent(t *testing.T) {
	cleaned := prompt.CleanContent("  Motie &amp; amendement \n\n over   stikstof  ", 0)
	require.Equal(t, "Motie & amendement over stikstof", cleaned)
}

func TestCleanContentCapsLength(t *testing.T) {
	long := strings.Repeat("a", 100)
	require.Equal(t, strings.Repeat("a", 10), prompt.CleanContent(long, 10))
}

func TestSummaryEmbedsContent(t *testing.T) {
	p := prompt.Summary("de kern van het stuk")
	require.Contains(t, p, "de kern van het stuk")
	require.Contains(t, p, "samenvatting")
}

func TestLabelListsAllCategories(t *testing.T) {
	p := prompt.Label("Titel", "Samenvatting", "Tekst")
	for _, label := range prompt.Labels {
		require.Contains(t, p, label)
	}
	require.Contains(t, p, "Titel")
	require.Contains(t, p, "Samenvatting")
}

func TestChatJoinsContexts(t *testing.T) {
	p := prompt.Chat("Wat is X?", []string{"stuk een", "stuk twee"})
	require.Contains(t, p, "Wat is X?")
	require.Contains(t, p, "stuk een")
	require.Contains(t, p, "stuk twee")
}
