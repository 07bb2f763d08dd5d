package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ledgerbook/internal/domain"
)

func TestName(t *testing.T) {
	got, ok := Name("  Ana  ")
	assert.True(t, ok)
	assert.Equal(t, "Ana", got)

	_, ok = Name("   ")
	assert.False(t, ok)
}

func TestOptionalContactFields(t *testing.T) {
	_, ok := Email("")
	assert.True(t, ok)
	_, ok = Email("ana@example.com")
	assert.True(t, ok)
	_, ok = Email("not-an-email")
	assert.False(t, ok)

	_, ok = Phone("+55 (11) 5555-0100")
	assert.True(t, ok)
	_, ok = Phone("call me")
	assert.False(t, ok)

	_, ok = Color("#4F46E5")
	assert.True(t, ok)
	_, ok = Color("blue")
	assert.False(t, ok)
}

func TestID(t *testing.T) {
	id, ok := ID("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc", "1.5"} {
		_, ok := ID(bad)
		assert.False(t, ok, bad)
	}
}

func TestEnums(t *testing.T) {
	d, ok := Direction("income")
	assert.True(t, ok)
	assert.Equal(t, domain.Income, d)
	_, ok = Direction("transfer")
	assert.False(t, ok)

	st, ok := OrderStatus("paid")
	assert.True(t, ok)
	assert.Equal(t, domain.OrderPaid, st)
}
