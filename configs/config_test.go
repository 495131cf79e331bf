package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaultFallsBack(t *testing.T) {
	assert.Equal(t, "fallback", ConfigDefault("CAMPUSFIND_TEST_UNSET", "fallback"))

	t.Setenv("CAMPUSFIND_TEST_SET", "explicit")
	assert.Equal(t, "explicit", ConfigDefault("CAMPUSFIND_TEST_SET", "fallback"))
}

func TestInt(t *testing.T) {
	assert.Equal(t, 42, Int("CAMPUSFIND_TEST_UNSET", 42))

	t.Setenv("CAMPUSFIND_TEST_INT", "7")
	assert.Equal(t, 7, Int("CAMPUSFIND_TEST_INT", 42))

	t.Setenv("CAMPUSFIND_TEST_INT", "seven")
	assert.Equal(t, 42, Int("CAMPUSFIND_TEST_INT", 42))
}

func TestDuration(t *testing.T) {
	def := 5 * time.Second
	min := time.Second

	assert.Equal(t, def, Duration("CAMPUSFIND_TEST_UNSET", def, min))

	t.Setenv("CAMPUSFIND_TEST_DUR", "10s")
	assert.Equal(t, 10*time.Second, Duration("CAMPUSFIND_TEST_DUR", def, min))

	t.Setenv("CAMPUSFIND_TEST_DUR", "soon")
	assert.Equal(t, def, Duration("CAMPUSFIND_TEST_DUR", def, min))
}

func TestDurationClampsBelowMinimum(t *testing.T) {
	t.Setenv("CAMPUSFIND_TEST_DUR", "1ms")
	assert.Equal(t, time.Second, Duration("CAMPUSFIND_TEST_DUR", 5*time.Second, time.Second))
}
