package llmerr

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *HTTPError
		want string
	}{
		{
			name: "provider message",
			err:  &HTTPError{Status: 401, Body: `{"error":{"message":"bad key"}}`, Message: "bad key"},
			want: "HTTP 401: bad key",
		},
		{
			name: "raw body fallback",
			err:  &HTTPError{Status: 502, Body: "  upstream down \n"},
			want: "HTTP 502: upstream down",
		},
		{
			name: "empty body",
			err:  &HTTPError{Status: 500},
			want: "HTTP 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{Provider: "Anthropic", Field: "API key"}
	assert.Equal(t, "Anthropic API key is not set", err.Error())
}

func TestClassifiers(t *testing.T) {
	netErr := fmt.Errorf("query: %w", &NetworkError{URL: "http://x", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}})
	httpErr := fmt.Errorf("query: %w", &HTTPError{Status: 429})
	shapeErr := &ResponseShapeError{Provider: "OpenAI", Reason: "no choices"}
	cfgErr := errors.Join(&ConfigurationError{Provider: "OpenAI", Field: "API key"})

	assert.True(t, IsNetwork(netErr))
	assert.False(t, IsNetwork(httpErr))
	assert.True(t, IsHTTP(httpErr))
	assert.Equal(t, 429, StatusCode(httpErr))
	assert.Equal(t, 0, StatusCode(netErr))
	assert.True(t, IsResponseShape(shapeErr))
	assert.True(t, IsConfiguration(cfgErr))

	var opErr *net.OpError
	assert.True(t, errors.As(netErr, &opErr), "NetworkError should unwrap to its cause")
}
