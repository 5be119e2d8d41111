package util

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProxyFunc_ExplicitProxies(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure-proxy.local:3129", "")

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/v1", nil)
	u, err := proxy(req)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "proxy.local:3128", u.Host)

	req = httptest.NewRequest(http.MethodGet, "https://api.example.com/v1", nil)
	u, err = proxy(req)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "secure-proxy.local:3129", u.Host)
}

func TestNewProxyFunc_NoProxyBypass(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "", "internal.example.com")

	req := httptest.NewRequest(http.MethodGet, "http://internal.example.com/x", nil)
	u, err := proxy(req)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestEnvOr(t *testing.T) {
	t.Setenv("GLOBECHAT_TEST_A", "")
	t.Setenv("GLOBECHAT_TEST_B", "b")

	assert.Equal(t, "b", EnvOr("def", "GLOBECHAT_TEST_A", "GLOBECHAT_TEST_B"))
	assert.Equal(t, "def", EnvOr("def", "GLOBECHAT_TEST_A"))
}
