package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	assert.Equal(t, "milk", Name("  Milk "))
	assert.Equal(t, "大さじの塩", Name("大さじの塩"))
	assert.Equal(t, "", Name("   "))
}

func TestIsSeasoningItem(t *testing.T) {
	t.Run("known seasonings", func(t *testing.T) {
		for _, name := range []string{"Salt", "soy sauce", "醤油", "みりん", "鶏ガラスープの素", "Sea Salt"} {
			assert.True(t, IsSeasoningItem(name), name)
		}
	})

	t.Run("plain ingredients", func(t *testing.T) {
		for _, name := range []string{"Carrot", "豚肉", "たまねぎ", "milk", ""} {
			assert.False(t, IsSeasoningItem(name), name)
		}
	})
}

func TestClassify(t *testing.T) {
	truth := true
	falsity := false

	t.Run("explicit flag wins over keyword match", func(t *testing.T) {
		// "salt" is a keyword hit, but explicit false overrides.
		assert.False(t, Classify("salt", &falsity))
	})

	t.Run("explicit true wins for non-keyword names", func(t *testing.T) {
		assert.True(t, Classify("carrot", &truth))
	})

	t.Run("fallback applies without a flag", func(t *testing.T) {
		assert.True(t, Classify("salt", nil))
		assert.False(t, Classify("carrot", nil))
	})
}
