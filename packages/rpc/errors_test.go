package rpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "status",
			err:  &Error{Kind: KindStatus, StatusCode: 404, Message: "incorrect request", Method: MethodGet, Path: "/a"},
			want: "GET /a: incorrect request (status 404)",
		},
		{
			name: "cause appended",
			err:  &Error{Kind: KindBuild, Message: "unable to build", Method: MethodPost, Path: "/b", Err: errors.New("bad")},
			want: "POST /b: unable to build: bad",
		},
		{
			name: "cause already in message",
			err:  &Error{Kind: KindTransport, Message: "transport error: reset", Method: MethodGet, Path: "/c", Err: errors.New("reset")},
			want: "GET /c: transport error: reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
}

func TestError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	e := &Error{Kind: KindTransport, Err: cause}
	wrapped := fmt.Errorf("outer: %w", e)

	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, &Error{Kind: KindTransport})
	assert.NotErrorIs(t, wrapped, &Error{Kind: KindStatus})
	assert.False(t, e.Is(&Error{}))

	got, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Same(t, e, got)

	_, ok = AsError(cause)
	assert.False(t, ok)
}

func TestError_DebugInfo(t *testing.T) {
	e := &Error{
		Kind:            KindStatus,
		StatusCode:      500,
		Message:         "bad response: oops",
		Method:          MethodPut,
		Path:            "/items/1",
		URL:             "https://api.example.com/items/1",
		RequestID:       "r-1",
		Headers:         map[string]string{"B": "2", "A": "1"},
		ResponseHeaders: map[string]string{"Retry-After": "3"},
		Body:            []byte("oops"),
		Err:             errors.New("root"),
	}

	info := e.DebugInfo()
	assert.Contains(t, info, "Kind: status_failure\n")
	assert.Contains(t, info, "Request ID: r-1\n")
	assert.Contains(t, info, "Request: PUT /items/1\n")
	assert.Contains(t, info, "URL: https://api.example.com/items/1\n")
	assert.Contains(t, info, "Status Code: 500\n")
	assert.Contains(t, info, "Headers:\n  A: 1\n  B: 2\n")
	assert.Contains(t, info, "Response Headers:\n  Retry-After: 3\n")
	assert.Contains(t, info, "Body: oops\n")
	assert.Contains(t, info, "Cause: root\n")
	assert.NotContains(t, info, "Params:")

	var nilErr *Error
	assert.Equal(t, "Error: <nil>", nilErr.DebugInfo())
}
