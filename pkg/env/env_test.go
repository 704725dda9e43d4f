package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	t.Setenv("DOMEO_TEST_VALUE", "  console ")
	assert.Equal(t, "console", Get("DOMEO_TEST_VALUE", "json"))

	t.Setenv("DOMEO_TEST_VALUE", "   ")
	assert.Equal(t, "json", Get("DOMEO_TEST_VALUE", "json"))
}

func TestFirstHonorsOrder(t *testing.T) {
	t.Setenv("DOMEO_TEST_A", "")
	t.Setenv("DOMEO_TEST_B", "b")
	t.Setenv("DOMEO_TEST_C", "c")
	assert.Equal(t, "b", First("x", "DOMEO_TEST_A", "DOMEO_TEST_B", "DOMEO_TEST_C"))
	assert.Equal(t, "x", First("x", "DOMEO_TEST_A"))
	assert.Equal(t, "x", First("x"))
}
