package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorySet(t *testing.T) {
	cs := NewCategorySet("Art", " books ", "art", "")
	assert.Equal(t, []string{"art", "books"}, cs.List())

	c, ok := cs.Normalize(" ART ")
	assert.True(t, ok)
	assert.Equal(t, "art", c)

	_, ok = cs.Normalize("weapons")
	assert.False(t, ok)

	list := cs.List()
	list[0] = "mutated"
	assert.Equal(t, []string{"art", "books"}, cs.List())
}

func TestParseCondition(t *testing.T) {
	c, ok := ParseCondition("Like_New")
	assert.True(t, ok)
	assert.Equal(t, ConditionLikeNew, c)

	_, ok = ParseCondition("refurbished")
	assert.False(t, ok)
}
