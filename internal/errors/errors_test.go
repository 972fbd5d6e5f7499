package errors

import (
	"io/fs"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeSetup, http.StatusUnprocessableEntity},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeClosed, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := Setupf("watch root %s does not exist", "/missing")

	assert.True(t, Is(err, ErrSetup))
	assert.False(t, Is(err, ErrNotFound))
	assert.Equal(t, "watch root /missing does not exist", err.Error())
}

func TestWrap_PreservesCause(t *testing.T) {
	err := Wrap(fs.ErrPermission, CodeSetup, "cannot read watch root")

	assert.True(t, Is(err, fs.ErrPermission))
	assert.True(t, Is(err, ErrSetup))
	assert.Contains(t, err.Error(), "cannot read watch root")
	assert.Contains(t, err.Error(), fs.ErrPermission.Error())
}

func TestError_WithDetailsAndCause(t *testing.T) {
	base := Validation("invalid settings")
	withDetails := base.WithDetails(map[string]string{"field": "path"})
	withCause := withDetails.WithCause(fs.ErrNotExist)

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]string{"field": "path"}, withCause.Details)
	assert.True(t, Is(withCause, fs.ErrNotExist))

	var domainErr *Error
	require.True(t, As(withCause, &domainErr))
	assert.Equal(t, CodeValidation, domainErr.Code)
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
}
