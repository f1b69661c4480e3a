package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("TUBE_RELAY_TEST_TOKEN", "bot-token-123")
	r, err := Load("testdata/config.yml")
	require.NoError(t, err)

	assert.Equal(t, "opus", r.Extractor.AudioFormat)
	assert.Equal(t, "128", r.Extractor.AudioQuality)
	assert.Equal(t, []string{"youtube.com", "youtu.be", "music.youtube.com"}, r.Extractor.LinkHosts)
	assert.Equal(t, 10*time.Minute, r.Extractor.Timeout)
	assert.Equal(t, "https://youtube.com/watch?v=", r.Extractor.WatchURL, "default")
	assert.Contains(t, r.Extractor.DownloadTemplate, "--audio-format={{.Format}}", "default")

	assert.Equal(t, 5, r.Search.DefaultLimit)
	assert.Equal(t, 10, r.Search.MaxLimit)
	assert.Equal(t, 30*time.Second, r.Search.CacheTTL)

	assert.Equal(t, 2, r.Delivery.Workers)
	assert.Equal(t, 8, r.Delivery.QueueSize)
	assert.Equal(t, 3, r.Delivery.Retries)
	assert.Equal(t, 2*time.Second, r.Delivery.RetryDelay)
	assert.True(t, r.Delivery.Await)
	assert.Equal(t, "done", r.Delivery.Footer)
	assert.Equal(t, "YouTube Music", r.Delivery.Performer, "default")

	assert.Equal(t, "bot-token-123", r.Telegram.Token, "expanded from env")
	assert.Equal(t, time.Minute, r.Telegram.Timeout)
	assert.Equal(t, "https://api.telegram.org", r.Telegram.Server)
	assert.Equal(t, "/tmp/tube-relay", r.System.DownloadDir)

	assert.NoError(t, r.Validate())
}

func TestLoadConfigNotFoundFile(t *testing.T) {
	r, err := Load("/tmp/29e28b3c-e1a4-4269-a10b-3e9a89a08d45.txt")

	assert.Nil(t, r)
	assert.EqualError(t, err, "open /tmp/29e28b3c-e1a4-4269-a10b-3e9a89a08d45.txt: no such file or directory")
}

func TestLoadConfigInvalidYaml(t *testing.T) {
	r, err := Load("testdata/file.txt")

	assert.Nil(t, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot unmarshal !!str `Not Yaml` into config.Conf")
}

func TestNew(t *testing.T) {
	c := New()
	assert.Equal(t, "mp3", c.Extractor.AudioFormat)
	assert.Equal(t, "192", c.Extractor.AudioQuality)
	assert.Equal(t, []string{"youtube.com", "youtu.be"}, c.Extractor.LinkHosts)
	assert.Equal(t, time.Duration(0), c.Extractor.Timeout, "no extractor timeout by default")
	assert.Equal(t, 1, c.Search.DefaultLimit)
	assert.Equal(t, 25, c.Search.MaxLimit)
	assert.Equal(t, 5*time.Minute, c.Search.CacheTTL)
	assert.Equal(t, 1, c.Delivery.Workers)
	assert.Equal(t, 16, c.Delivery.QueueSize)
	assert.Equal(t, 1, c.Delivery.Retries)
	assert.False(t, c.Delivery.Await)
	assert.Equal(t, "✅ Ready! Downloaded from YouTube.", c.Delivery.Footer)
	assert.Equal(t, "downloads", c.System.DownloadDir)
	assert.NoError(t, c.Validate())
}

func TestNoCache(t *testing.T) {
	c := &Conf{}
	c.Search.NoCache = true
	c.Search.CacheTTL = time.Minute
	c.setDefaults()
	assert.Equal(t, time.Duration(0), c.Search.CacheTTL)
}

func TestValidate(t *testing.T) {
	c := New()
	c.Extractor.DownloadTemplate = " "
	c.Extractor.AudioFormat = "wma"
	c.Delivery.Workers = -1
	c.Search.DefaultLimit, c.Search.MaxLimit = 10, 5

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 errors occurred")
	assert.Contains(t, err.Error(), "empty download template")
	assert.Contains(t, err.Error(), `unknown audio format "wma"`)
	assert.Contains(t, err.Error(), "delivery workers should be positive, got -1")
	assert.Contains(t, err.Error(), "max search limit 5 lower than default limit 10")

	c = New()
	c.Extractor.AudioFormat = "MP3"
	assert.NoError(t, c.Validate(), "format is case insensitive")
}
