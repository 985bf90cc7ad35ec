package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand_CanonicalAndLegacyForms(t *testing.T) {
	lookup := ChainLookup(map[string]string{"FOO": "bar", "BAZ": "qux"})
	assert.Equal(t, "bar and qux", Expand("${FOO} and {$BAZ}", lookup))
}

func TestExpand_UnresolvedBecomesEmpty(t *testing.T) {
	lookup := ChainLookup(map[string]string{})
	assert.Equal(t, "prefix--suffix", Expand("prefix-${MISSING}-suffix", lookup))
}

func TestExpand_PassesThroughNonMatchingText(t *testing.T) {
	lookup := ChainLookup(nil)
	assert.Equal(t, "$NOTBRACED and $ alone", Expand("$NOTBRACED and $ alone", lookup))
}

func TestExpand_SinglePassNoRescan(t *testing.T) {
	// The expansion of FOO itself contains a reference-looking string;
	// it must not be expanded further in the same call.
	lookup := ChainLookup(map[string]string{"FOO": "${BAR}", "BAR": "should-not-appear"})
	assert.Equal(t, "${BAR}", Expand("${FOO}", lookup))
}

func TestExpand_ChainLookupPrefersEarlierMap(t *testing.T) {
	special := map[string]string{"NAME": "special"}
	working := map[string]string{"NAME": "working", "OTHER": "x"}
	lookup := ChainLookup(special, working)
	assert.Equal(t, "special-x", Expand("${NAME}-${OTHER}", lookup))
}

func TestExpand_Idempotent(t *testing.T) {
	lookup := ChainLookup(map[string]string{"NAME": "world"})
	once := Expand("hello ${NAME}", lookup)
	twice := Expand(once, lookup)
	assert.Equal(t, once, twice)
}
