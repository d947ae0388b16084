package errors

import (
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCapturesTypeAndStack(t *testing.T) {
	err := New(ErrorTypeParse, "bad delimiter")

	assert.Equal(t, ErrorTypeParse, err.Type)
	assert.Contains(t, err.Error(), "parse: bad delimiter")
	assert.NotEmpty(t, err.Stack)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("open /tmp/x.csv: no such file")
	err := Wrap(cause, ErrorTypeFile, "failed to open source")

	require.NotNil(t, err)
	assert.True(t, goerrors.Is(err, cause))
	assert.Contains(t, err.Error(), "no such file")
}

func TestWrapNilReturnsNil(t *testing.T) {
	var typed *Error = Wrap(nil, ErrorTypeWrite, "ignored")
	assert.Nil(t, typed)
}

func TestIsTypeThroughWrapping(t *testing.T) {
	inner := New(ErrorTypeWrite, "codec rejected")
	outer := Wrap(inner, ErrorTypeWrite, "stream aborted")

	assert.True(t, IsType(outer, ErrorTypeWrite))
	assert.False(t, IsType(outer, ErrorTypeParse))
	assert.False(t, IsType(goerrors.New("plain"), ErrorTypeWrite))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeVerify, TypeOf(New(ErrorTypeVerify, "unreadable")))
	assert.Equal(t, ErrorTypeInternal, TypeOf(goerrors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeParse, "zero columns").WithDetail("path", "a.csv")
	assert.Equal(t, "a.csv", err.Details["path"])
}
