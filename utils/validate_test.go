package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Name  string `validate:"required,max=10"`
	Level string `validate:"required,oneof=basic intermediate advanced"`
}

func TestValidateStruct(t *testing.T) {
	err := ValidateStruct(samplePayload{Name: "abc", Level: "basic"})
	require.NoError(t, err)

	err = ValidateStruct(samplePayload{Name: "", Level: "expert"})
	require.Error(t, err)

	msg := ValidationMessage(err)
	assert.Contains(t, msg, "name: required")
	assert.Contains(t, msg, "level: oneof")
}
