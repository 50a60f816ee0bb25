package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorWrappingAndClassification(t *testing.T) {
	cause := errors.New("tcp reset")
	err := WrapError(CodeConnection, "could not connect", cause)

	assert.Equal(t, CodeConnection, CodeOf(err))
	assert.Equal(t, "could not connect", UserMessage(err))
	assert.ErrorIs(t, err, cause)

	// Classification survives further wrapping.
	wrapped := fmt.Errorf("send failed: %w", err)
	assert.Equal(t, CodeConnection, CodeOf(wrapped))
	assert.Equal(t, "could not connect", UserMessage(wrapped))
}

func TestCodeOfUnclassified(t *testing.T) {
	assert.Equal(t, CodeUnknownProvider, CodeOf(errors.New("mystery")))
	assert.Equal(t, "mystery", UserMessage(errors.New("mystery")))
}
