package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextActor(t *testing.T) {
	assert.Equal(t, int64(0), ContextActor(context.Background()))
	assert.Equal(t, int64(0), ContextActor(nil))
	assert.Equal(t, int64(7),
		ContextActor(WithContextActor(context.Background(), 7)))
}
