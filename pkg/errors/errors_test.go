package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CarriesCodeAndMessage(t *testing.T) {
	err := New(ErrCodePatentNotFound, "patent US10123456 not found")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodePatentNotFound, err.Code)
	assert.Contains(t, err.Error(), "PAT_001")
	assert.Contains(t, err.Error(), "patent US10123456 not found")
}

func TestError_DetailFormatting(t *testing.T) {
	err := New(ErrCodeValidationFailed, "patent validation failed").
		WithDetail("patent_id: Patent ID is required")
	assert.Equal(t, "[VAL_001] patent validation failed: patent_id: Patent ID is required", err.Error())
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "should vanish"))
	assert.Nil(t, Wrapf(nil, ErrCodeInternal, "should %s", "vanish"))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeStoreCommitFailed, "batch commit failed")
	require.NotNil(t, err)
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, ErrCodeStoreCommitFailed, err.Code)
}

func TestWrap_UnknownCodeInheritsInnerCode(t *testing.T) {
	inner := New(ErrCodeDataSourceRateLimited, "slow down")
	outer := Wrap(inner, CodeUnknown, "fetch failed")
	assert.Equal(t, ErrCodeDataSourceRateLimited, outer.Code)
}

func TestIsCode_TraversesChain(t *testing.T) {
	inner := New(ErrCodeStoreUnavailable, "store down")
	outer := fmt.Errorf("upsert: %w", inner)
	assert.True(t, IsCode(outer, ErrCodeStoreUnavailable))
	assert.False(t, IsCode(outer, ErrCodeIndexingFailed))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeNotFound, "missing")))
	assert.True(t, IsNotFound(New(ErrCodePatentNotFound, "missing patent")))
	assert.False(t, IsNotFound(New(ErrCodeConflict, "busy")))
	assert.False(t, IsNotFound(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeIndexingInProgress, GetCode(New(ErrCodeIndexingInProgress, "busy")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "STO", ModuleForCode(ErrCodeStoreCommitFailed))
	assert.Equal(t, "IDX", ModuleForCode(ErrCodeIndexingInProgress))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestWithDetail_NilReceiver(t *testing.T) {
	var e *AppError
	assert.Nil(t, e.WithDetail("ignored"))
	assert.Nil(t, e.WithCause(stderrors.New("ignored")))
}
