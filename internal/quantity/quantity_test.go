package quantity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_Numeric(t *testing.T) {
	t.Run("integers sum", func(t *testing.T) {
		assert.Equal(t, "3", Merge("1", "2"))
	})

	t.Run("decimals sum", func(t *testing.T) {
		assert.Equal(t, "3.5", Merge("1.5", "2"))
	})

	t.Run("commutative", func(t *testing.T) {
		pairs := [][2]string{{"1", "2"}, {"0.5", "0.25"}, {"10", "3"}}
		for _, p := range pairs {
			assert.Equal(t, Merge(p[0], p[1]), Merge(p[1], p[0]))
		}
	})

	t.Run("surrounding whitespace still numeric", func(t *testing.T) {
		assert.Equal(t, "3", Merge(" 1 ", "2"))
	})
}

func TestMerge_Empty(t *testing.T) {
	t.Run("empty left returns right", func(t *testing.T) {
		assert.Equal(t, "2個", Merge("", "2個"))
	})

	t.Run("empty right returns left", func(t *testing.T) {
		assert.Equal(t, "2個", Merge("2個", ""))
	})

	t.Run("whitespace counts as empty", func(t *testing.T) {
		assert.Equal(t, "大さじ1", Merge("   ", "大さじ1"))
	})
}

func TestMerge_Text(t *testing.T) {
	t.Run("text concatenates in call order", func(t *testing.T) {
		assert.Equal(t, "大さじ1+少々", Merge("大さじ1", "少々"))
		assert.Equal(t, "少々+大さじ1", Merge("少々", "大さじ1"))
	})

	t.Run("identical text is not collapsed", func(t *testing.T) {
		// Observed source behavior, preserved as defined.
		assert.Equal(t, "大さじ1+大さじ1", Merge("大さじ1", "大さじ1"))
	})

	t.Run("mixed numeric and text concatenates", func(t *testing.T) {
		assert.Equal(t, "2+適量", Merge("2", "適量"))
	})

	t.Run("non-canonical numerics are text", func(t *testing.T) {
		assert.Equal(t, "01+2", Merge("01", "2"))
		assert.Equal(t, "1.50+2", Merge("1.50", "2"))
		assert.Equal(t, "1e2+2", Merge("1e2", "2"))
	})
}
