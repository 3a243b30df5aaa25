package searchclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassName_CapitalizesFirstLetter(t *testing.T) {
	assert.Equal(t, "User", ClassName("user"))
	assert.Equal(t, "Topic", ClassName("topic"))
	assert.Equal(t, "Technology", ClassName("technology"))
}

func TestClassName_LeavesAlreadyCapitalizedAlone(t *testing.T) {
	assert.Equal(t, "User", ClassName("User"))
}

func TestClassName_EmptyStringIsEmpty(t *testing.T) {
	assert.Equal(t, "", ClassName(""))
}

func TestObjectID_DeterministicForSameClassAndKey(t *testing.T) {
	a := objectID("User", "42")
	b := objectID("User", "42")
	assert.Equal(t, a, b)
}

func TestObjectID_DiffersAcrossKeysAndClasses(t *testing.T) {
	base := objectID("User", "42")
	assert.NotEqual(t, base, objectID("User", "43"))
	assert.NotEqual(t, base, objectID("Topic", "42"))
}

func TestNewBulkSession_DefaultsNonPositiveAutoFlush(t *testing.T) {
	c, err := New("127.0.0.1:0")
	assert.NoError(t, err)

	session := c.NewBulkSession("Widget", 0)
	assert.Equal(t, 20, session.autoFlush)
}
