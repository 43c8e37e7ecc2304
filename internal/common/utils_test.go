package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAny(t *testing.T) {
	assert.True(t, HasAny("liquid iron", "fertilizer", "iron"))
	assert.False(t, HasAny("grub killer", "fertilizer", "iron"))
	assert.False(t, HasAny("anything", ""))
	assert.False(t, HasAny("Iron", "iron"))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty())
}
