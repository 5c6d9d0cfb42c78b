package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	c := Static("canned")

	out, err := c(context.Background(), "anything", WithSystemPrompt("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "canned", out)
}
