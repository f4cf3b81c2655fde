package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWelcome(t *testing.T) {
	out, err := RenderWelcome(WelcomeData{MenteeNickname: "m1", MentorNickname: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "Hello m1!\nI'm mentor t1. Please enter your question.", out)
}
