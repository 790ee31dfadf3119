package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolError(t *testing.T) {
	err := NewToolError(KindTimeout, "stage exceeded %ds", 30)
	assert.Equal(t, "timeout: stage exceeded 30s", err.Error())
	assert.Equal(t, KindTimeout, err.Kind)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NewToolError(KindNotFound, "no such tool")))

	// Wrapped classifications survive the chain.
	wrapped := fmt.Errorf("invoking: %w", NewToolError(KindToolchainMissing, "mvn not found"))
	assert.Equal(t, KindToolchainMissing, KindOf(wrapped))

	// Anything unclassified is internal.
	assert.Equal(t, KindInternal, KindOf(errors.New("disk on fire")))
}

func TestEnvelopes(t *testing.T) {
	ok := Success("report")
	assert.True(t, ok.OK)
	assert.Equal(t, "report", ok.Payload)
	assert.Nil(t, ok.Err)

	fail := Failure(NewToolError(KindInvalidArgument, "bad"))
	assert.False(t, fail.OK)
	assert.Empty(t, fail.Payload)
	assert.Equal(t, KindInvalidArgument, fail.Err.Kind)
}
