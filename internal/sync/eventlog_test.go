package syncx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	e, err := NewEvent("", TypeAttemptGraded, "a-1", map[string]int{"percentage": 42})
	require.NoError(t, err)
	assert.Equal(t, "local", e.SiteID)
	assert.Equal(t, `{"percentage":42}`, e.DataJSON)

	_, err = NewEvent("s", TypeAttemptGraded, "a-1", make(chan int))
	assert.Error(t, err)
}
