package ca

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalProtocolErrorWrapsSentinel(t *testing.T) {
	err := NewLocalProtocolError("bad state", ErrWrongState)
	assert.True(t, errors.Is(err, ErrWrongState))
	assert.Contains(t, err.Error(), "bad state")
}

func TestRemoteProtocolErrorWrapsSentinel(t *testing.T) {
	err := NewRemoteProtocolError("short frame", ErrShortBuffer)
	assert.True(t, errors.Is(err, ErrShortBuffer))
}

func TestCaprotoValueErrorWithoutCause(t *testing.T) {
	err := NewCaprotoValueError("bad role", nil)
	assert.Equal(t, "bad role", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestNeedDataIsDistinctFromOtherErrors(t *testing.T) {
	assert.NotEqual(t, NeedData, ErrShortBuffer)
	assert.Equal(t, "need more data", NeedData.Error())
}

func TestRoleOtherAndValid(t *testing.T) {
	assert.Equal(t, SERVER, CLIENT.Other())
	assert.Equal(t, CLIENT, SERVER.Other())
	assert.True(t, ValidRole(CLIENT))
	assert.False(t, ValidRole(Role(42)))
}
