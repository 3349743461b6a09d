package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey_CaseAndWhitespaceInsensitive(t *testing.T) {
	a := Address{Street: "1600 Pennsylvania Ave", City: "Washington", State: "DC", Zip: "20500"}
	b := Address{Street: "  1600 PENNSYLVANIA AVE ", City: "washington", State: "dc", Zip: "20500 "}

	assert.Equal(t, a.CacheKey(), b.CacheKey())
}

func TestCacheKey_FieldOrderStable(t *testing.T) {
	// Street and city must not collapse into the same key position.
	a := Address{Street: "Main", City: "Springfield"}
	b := Address{Street: "Springfield", City: "Main"}

	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
}

func TestSingleLine(t *testing.T) {
	a := Address{Street: "1600 Pennsylvania Ave", City: "Washington", State: "DC", Zip: "20500"}
	assert.Equal(t, "1600 Pennsylvania Ave, Washington, DC, 20500", a.SingleLine())

	withUnit := Address{Street: "123 Main St", Street2: "Apt 4", City: "Bethesda", State: "MD", Zip: "20814"}
	assert.Equal(t, "123 Main St, Apt 4, Bethesda, MD, 20814", withUnit.SingleLine())
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Address{}.IsEmpty())
	assert.True(t, Address{Street: "   "}.IsEmpty())
	assert.False(t, Address{Zip: "20500"}.IsEmpty())
}
