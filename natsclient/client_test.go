package natsclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TTCRadio/gnuradio/config"
	"github.com/TTCRadio/gnuradio/errors"
)

func TestNewClientRequiresURLs(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
	assert.True(t, errors.IsConstruction(err))
}

func TestFromConfigRequiresURLs(t *testing.T) {
	_, err := FromConfig(config.NATSConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestFromConfigMapsSettings(t *testing.T) {
	client, err := FromConfig(config.NATSConfig{
		URLs:          []string{"nats://a:4222", "nats://b:4222"},
		MaxReconnects: 3,
		ReconnectWait: 5 * time.Second,
		Username:      "user",
		Password:      "pass",
	}, WithName("test-client"))
	require.NoError(t, err)

	assert.Equal(t, "nats://a:4222,nats://b:4222", client.urls)
	assert.Equal(t, 3, client.maxReconnects)
	assert.Equal(t, 5*time.Second, client.reconnectWait)
	assert.Equal(t, "user", client.username)
	assert.Equal(t, "test-client", client.name)
}

func TestConnBeforeConnect(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	_, err = client.Conn()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotStarted)
	assert.False(t, client.Connected())
}

func TestCloseWithoutConnection(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
