package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteCitations_ResolvesKnownSources(t *testing.T) {
	sources := map[string]Source{"T1": {Index: 1, Handle: "alice", PostURL: "https://example.com/1"}}
	out := RewriteCitations("Prices moved [Source: T1].", sources)

	assert.Equal(t, "Prices moved [T1](https://example.com/1).", out)
}

func TestRewriteCitations_FallsBackToPlainLabelForUnknownSource(t *testing.T) {
	sources := map[string]Source{"T1": {Index: 1, Handle: "alice", PostURL: "https://example.com/1"}}
	out := RewriteCitations("A hallucinated claim [Source: T9].", sources)

	assert.Equal(t, "A hallucinated claim T9.", out)
}

func TestRewriteCitations_EscapesStrayBrackets(t *testing.T) {
	out := RewriteCitations("Ticker [BTC] moved up.", map[string]Source{})
	assert.Equal(t, `Ticker \[BTC\] moved up.`, out)
}

func TestRewriteCitations_MixedBracketsAndCitations(t *testing.T) {
	sources := map[string]Source{"T2": {Index: 2, Handle: "bob", PostURL: "https://example.com/2"}}
	out := RewriteCitations("[ETH] rallied [Source: T2] after the announcement.", sources)

	assert.Equal(t, `\[ETH\] rallied [T2](https://example.com/2) after the announcement.`, out)
}
