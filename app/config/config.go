// Package config provides the configuration support for the application.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Conf for tube-relay config yml, all sections are optional
type Conf struct {
	Extractor struct {
		SearchTemplate   string        `yaml:"search_template"`
		InfoTemplate     string        `yaml:"info_template"`
		DownloadTemplate string        `yaml:"download_template"`
		AudioFormat      string        `yaml:"audio_format"`
		AudioQuality     string        `yaml:"audio_quality"`
		WatchURL         string        `yaml:"watch_url"`
		LinkHosts        []string      `yaml:"link_hosts"`
		Timeout          time.Duration `yaml:"timeout"`
	} `yaml:"extractor"`

	Search struct {
		DefaultLimit int           `yaml:"default_limit"`
		MaxLimit     int           `yaml:"max_limit"`
		CacheTTL     time.Duration `yaml:"cache_ttl"`
		NoCache      bool          `yaml:"no_cache"`
	} `yaml:"search"`

	Delivery struct {
		Workers    int           `yaml:"workers"`
		QueueSize  int           `yaml:"queue"`
		Retries    int           `yaml:"retries"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		Timeout    time.Duration `yaml:"timeout"`
		Await      bool          `yaml:"await"`
		Performer  string        `yaml:"performer"`
		Footer     string        `yaml:"footer"`
	} `yaml:"delivery"`

	Telegram struct {
		Server  string        `yaml:"server"`
		Token   string        `yaml:"token"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"telegram"`

	System struct {
		DownloadDir string `yaml:"download_dir"`
	} `yaml:"system"`
}

// audio formats supported by yt-dlp's audio extractor
var audioFormats = []string{"mp3", "m4a", "aac", "opus", "vorbis", "flac", "wav", "alac"}

// Load config from file
func Load(fname string) (res *Conf, err error) {
	res = &Conf{}
	data, err := os.ReadFile(fname) // nolint
	if err != nil {
		return nil, err
	}
	// expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(data, res); err != nil {
		return nil, err
	}
	res.setDefaults()
	return res, nil
}

// New makes config with all defaults, used when no config file given
func New() *Conf {
	res := &Conf{}
	res.setDefaults()
	return res
}

// Validate reports all problems of the config at once
func (c *Conf) Validate() error {
	var errs *multierror.Error
	if strings.TrimSpace(c.Extractor.DownloadTemplate) == "" {
		errs = multierror.Append(errs, fmt.Errorf("empty download template"))
	}
	if strings.TrimSpace(c.Extractor.SearchTemplate) == "" {
		errs = multierror.Append(errs, fmt.Errorf("empty search template"))
	}
	if !c.knownFormat() {
		errs = multierror.Append(errs, fmt.Errorf("unknown audio format %q, expected one of %s",
			c.Extractor.AudioFormat, strings.Join(audioFormats, ",")))
	}
	if c.Delivery.Workers < 1 {
		errs = multierror.Append(errs, fmt.Errorf("delivery workers should be positive, got %d", c.Delivery.Workers))
	}
	if c.Delivery.QueueSize < 0 {
		errs = multierror.Append(errs, fmt.Errorf("delivery queue can't be negative, got %d", c.Delivery.QueueSize))
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		errs = multierror.Append(errs, fmt.Errorf("max search limit %d lower than default limit %d",
			c.Search.MaxLimit, c.Search.DefaultLimit))
	}
	if c.System.DownloadDir == "" {
		errs = multierror.Append(errs, fmt.Errorf("empty download directory"))
	}
	return errs.ErrorOrNil()
}

func (c *Conf) knownFormat() bool {
	for _, f := range audioFormats {
		if strings.EqualFold(f, c.Extractor.AudioFormat) {
			return true
		}
	}
	return false
}

// setDefaults sets default values for config
func (c *Conf) setDefaults() {
	if c.Extractor.SearchTemplate == "" {
		c.Extractor.SearchTemplate = `yt-dlp --flat-playlist --dump-single-json --no-warnings "ytsearch{{.Limit}}:{{.Query}}"`
	}
	if c.Extractor.InfoTemplate == "" {
		c.Extractor.InfoTemplate = `yt-dlp --dump-single-json --no-playlist --no-warnings {{.URL}}`
	}
	if c.Extractor.DownloadTemplate == "" {
		c.Extractor.DownloadTemplate = `yt-dlp -f bestaudio/best --extract-audio --audio-format={{.Format}} ` +
			`--audio-quality={{.Quality}}K --no-playlist --no-progress --no-warnings --print-json ` +
			`-o "{{.Dir}}/%(title)s.%(ext)s" {{.URL}}`
	}
	if c.Extractor.AudioFormat == "" {
		c.Extractor.AudioFormat = "mp3"
	}
	if c.Extractor.AudioQuality == "" {
		c.Extractor.AudioQuality = "192"
	}
	if c.Extractor.WatchURL == "" {
		c.Extractor.WatchURL = "https://youtube.com/watch?v="
	}
	if len(c.Extractor.LinkHosts) == 0 {
		c.Extractor.LinkHosts = []string{"youtube.com", "youtu.be"}
	}

	if c.Search.DefaultLimit == 0 {
		c.Search.DefaultLimit = 1
	}
	if c.Search.MaxLimit == 0 {
		c.Search.MaxLimit = 25
	}
	if c.Search.CacheTTL == 0 && !c.Search.NoCache {
		c.Search.CacheTTL = 5 * time.Minute
	}
	if c.Search.NoCache {
		c.Search.CacheTTL = 0
	}

	if c.Delivery.Workers == 0 {
		c.Delivery.Workers = 1
	}
	if c.Delivery.QueueSize == 0 {
		c.Delivery.QueueSize = 16
	}
	if c.Delivery.Retries == 0 {
		c.Delivery.Retries = 1
	}
	if c.Delivery.RetryDelay == 0 {
		c.Delivery.RetryDelay = time.Second
	}
	if c.Delivery.Performer == "" {
		c.Delivery.Performer = "YouTube Music"
	}
	if c.Delivery.Footer == "" {
		c.Delivery.Footer = "✅ Ready! Downloaded from YouTube."
	}

	if c.Telegram.Server == "" {
		c.Telegram.Server = "https://api.telegram.org"
	}
	if c.Telegram.Timeout == 0 {
		c.Telegram.Timeout = time.Minute * 5
	}

	if c.System.DownloadDir == "" {
		c.System.DownloadDir = "downloads"
	}
}
