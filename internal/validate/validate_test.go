package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blueprintlab/studio/internal/apperr"
	"github.com/blueprintlab/studio/internal/validate"
)

func TestNodeName_Boundary(t *testing.T) {
	assert.NoError(t, validate.NodeName(strings.Repeat("x", 255)))
	assert.ErrorIs(t, validate.NodeName(strings.Repeat("x", 256)), apperr.ErrValidation)
	assert.ErrorIs(t, validate.NodeName(""), apperr.ErrValidation)
	assert.ErrorIs(t, validate.NodeName("   "), apperr.ErrValidation)
}

func TestNodeName_CountsRunesNotBytes(t *testing.T) {
	// 255 multi-byte characters are within the limit.
	assert.NoError(t, validate.NodeName(strings.Repeat("文", 255)))
	assert.Error(t, validate.NodeName(strings.Repeat("文", 256)))
}

func TestProjectName(t *testing.T) {
	assert.NoError(t, validate.ProjectName(strings.Repeat("x", 128)))
	assert.ErrorIs(t, validate.ProjectName(strings.Repeat("x", 129)), apperr.ErrValidation)
	assert.ErrorIs(t, validate.ProjectName(""), apperr.ErrValidation)
}

func TestProjectDescription(t *testing.T) {
	assert.NoError(t, validate.ProjectDescription(""))
	assert.NoError(t, validate.ProjectDescription(strings.Repeat("x", 400)))
	assert.ErrorIs(t, validate.ProjectDescription(strings.Repeat("x", 401)), apperr.ErrValidation)
}

func TestTermAndDefinition(t *testing.T) {
	assert.NoError(t, validate.Term("SKU"))
	assert.ErrorIs(t, validate.Term(""), apperr.ErrValidation)
	assert.ErrorIs(t, validate.Term(strings.Repeat("x", 256)), apperr.ErrValidation)

	assert.NoError(t, validate.Definition("stock keeping unit"))
	assert.ErrorIs(t, validate.Definition("  "), apperr.ErrValidation)
}
