// Package extractor drives an external media extractor (yt-dlp) to search tracks, resolve links and
// download the best audio stream transcoded by the extractor's ffmpeg post-processor.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"os/exec"
	"strings"
	"text/template"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

//go:generate moq -out mocks/duration.go -pkg mocks -skip-ensure -fmt goimports . DurationService
//go:generate moq -out mocks/tagger.go -pkg mocks -skip-ensure -fmt goimports . TagService

// ErrEmptyQuery returned by Search for blank queries
var ErrEmptyQuery = errors.New("empty query")

// Extractor runs command templates. Each template is split into arguments first and every argument
// is rendered separately, so values like the query never reach a shell.
//
// Search template params: {{.Query}}, {{.Limit}}; info: {{.URL}};
// download: {{.URL}}, {{.Dir}}, {{.Format}}, {{.Quality}}.
type Extractor struct {
	SearchTemplate   string
	InfoTemplate     string
	DownloadTemplate string
	AudioFormat      string        // target format of the transcoder, i.e. mp3
	AudioQuality     string        // target bitrate in kbps, i.e. 192
	WatchURL         string        // prefix for links made from search result ids
	LinkHosts        []string      // registrable domains recognized as direct links
	Destination      string        // root directory for per-download directories
	Timeout          time.Duration // per command, 0 means no timeout
	LogWriter        io.Writer     // receives stderr of commands

	DurationService DurationService // optional, used when extractor doesn't report duration
	TagService      TagService      // optional, writes tags to mp3 output
}

// Track describes one media item found by search or resolved from a link
type Track struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
	Uploader  string  `json:"uploader,omitempty"`
}

// info is a subset of yt-dlp's info json
type info struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Duration   float64 `json:"duration"`
	Thumbnail  string  `json:"thumbnail"`
	Thumbnails []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
	Uploader           string `json:"uploader"`
	Channel            string `json:"channel"`
	Filename           string `json:"_filename"`
	FilenameAlt        string `json:"filename"`
	RequestedDownloads []struct {
		Filepath string `json:"filepath"`
	} `json:"requested_downloads"`
	Entries []info `json:"entries"`
}

// IsLink checks if query is a direct link to one of LinkHosts. Scheme is optional.
func (e *Extractor) IsLink(query string) bool {
	q := strings.TrimSpace(query)
	if q == "" || strings.ContainsAny(q, " \t\r\n") {
		return false
	}
	if !strings.Contains(q, "://") {
		q = "https://" + q
	}
	u, err := url.Parse(q)
	if err != nil || u.Hostname() == "" {
		return false
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return false
	}
	for _, h := range e.LinkHosts {
		if strings.EqualFold(domain, h) {
			return true
		}
	}
	return false
}

// Search returns up to limit tracks for the query, in the order reported by the extractor.
// Direct link returns a single track describing the link, with URL set to the query as is.
func (e *Extractor) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit < 1 {
		limit = 1
	}

	if e.IsLink(query) {
		track, err := e.Info(ctx, query)
		if err != nil {
			return nil, err
		}
		return []Track{track}, nil
	}

	params := struct {
		Query string
		Limit int
	}{Query: query, Limit: limit}
	out, err := e.run(ctx, e.SearchTemplate, params, "")
	if err != nil {
		return nil, errors.Wrapf(err, "search failed for %q", query)
	}
	inf, err := decodeInfo(out)
	if err != nil {
		return nil, errors.Wrapf(err, "can't decode search results for %q", query)
	}

	res := make([]Track, 0, len(inf.Entries))
	for _, entry := range inf.Entries {
		if len(res) >= limit {
			break
		}
		track := e.track(entry)
		track.URL = e.WatchURL + entry.ID
		res = append(res, track)
	}
	log.Printf("[DEBUG] search %q, limit %d, found %d", query, limit, len(res))
	return res, nil
}

// Info resolves metadata of a direct link without downloading
func (e *Extractor) Info(ctx context.Context, link string) (Track, error) {
	out, err := e.run(ctx, e.InfoTemplate, struct{ URL string }{URL: link}, "")
	if err != nil {
		return Track{}, errors.Wrapf(err, "can't get info for %s", link)
	}
	inf, err := decodeInfo(out)
	if err != nil {
		return Track{}, errors.Wrapf(err, "can't decode info for %s", link)
	}
	if len(inf.Entries) > 0 && inf.Title == "" {
		inf = inf.Entries[0]
	}
	track := e.track(inf)
	track.URL = link
	return track, nil
}

func (e *Extractor) track(inf info) Track {
	res := Track{ID: inf.ID, Title: inf.Title, Duration: inf.Duration, Thumbnail: inf.Thumbnail, Uploader: inf.Uploader}
	if res.Thumbnail == "" && len(inf.Thumbnails) > 0 {
		res.Thumbnail = inf.Thumbnails[len(inf.Thumbnails)-1].URL
	}
	if res.Uploader == "" {
		res.Uploader = inf.Channel
	}
	return res
}

// run renders command template and executes it, returns stdout
func (e *Extractor) run(ctx context.Context, tmpl string, params interface{}, dir string) ([]byte, error) {
	args, err := shellwords.Parse(tmpl)
	if err != nil {
		return nil, errors.Wrapf(err, "can't split command %q", tmpl)
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	for i, arg := range args {
		t, err := template.New("arg").Parse(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "can't parse template %q", arg)
		}
		b := bytes.Buffer{}
		if err := t.Execute(&b, params); err != nil {
			return nil, errors.Wrapf(err, "can't execute template %q", arg)
		}
		args[i] = b.String()
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	stdout := bytes.Buffer{}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...) // nolint:gosec // command comes from configured template
	cmd.Stdout = &stdout
	cmd.Stderr = e.logWriter()
	cmd.Dir = dir
	log.Printf("[DEBUG] executing command: %s", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "failed to execute %s", args[0])
	}
	return stdout.Bytes(), nil
}

func (e *Extractor) logWriter() io.Writer {
	if e.LogWriter == nil {
		return io.Discard
	}
	return e.LogWriter
}

// decodeInfo reads all json documents from the output and returns the last one.
// yt-dlp prints one document per processed item, non-json lines are not expected on stdout.
func decodeInfo(data []byte) (info, error) {
	var res info
	found := false
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var inf info
		err := dec.Decode(&inf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return info{}, err
		}
		res, found = inf, true
	}
	if !found {
		return info{}, errors.New("no json in output")
	}
	return res, nil
}
