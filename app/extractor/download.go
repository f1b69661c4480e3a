package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/umputun/tube-relay/app/media"
)

// ErrNoFile is returned when the extractor finished but the transcoded file can't be found
var ErrNoFile = errors.New("no transcoded file")

// DurationService measures length of produced files in seconds
type DurationService interface {
	Duration(fname string) float64
}

// TagService writes tags to produced files
type TagService interface {
	Tag(fname string, tags media.Tags) error
}

// Download is a transcoded audio file on local disk. Dir is owned by this download only
// and should be removed together with the file.
type Download struct {
	ID        string
	File      string
	Dir       string
	Title     string
	Duration  float64
	Uploader  string
	Thumbnail string
	Size      int64
}

// Download fetches the best audio stream of the link and transcodes it to AudioFormat.
// The file name is derived from the title and placed into a new per-download directory.
func (e *Extractor) Download(ctx context.Context, link string) (res Download, err error) {
	root, err := filepath.Abs(e.Destination)
	if err != nil {
		return Download{}, errors.Wrapf(err, "can't resolve destination %s", e.Destination)
	}
	id := uuid.New().String()
	dir := filepath.Join(root, id)
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return Download{}, errors.Wrapf(err, "failed to create directory %s", dir)
	}
	defer func() {
		if err != nil {
			if rmErr := os.RemoveAll(dir); rmErr != nil {
				log.Printf("[DEBUG] can't remove %s: %v", dir, rmErr)
			}
		}
	}()

	params := struct {
		URL     string
		Dir     string
		Format  string
		Quality string
	}{URL: link, Dir: dir, Format: e.AudioFormat, Quality: e.AudioQuality}

	out, err := e.run(ctx, e.DownloadTemplate, params, dir)
	if err != nil {
		return Download{}, errors.Wrapf(err, "download failed for %s", link)
	}
	inf, err := decodeInfo(out)
	if err != nil {
		return Download{}, errors.Wrapf(err, "can't decode download info for %s", link)
	}

	file, err := e.resolveFile(dir, inf)
	if err != nil {
		return Download{}, errors.Wrapf(err, "can't find result of %s in %s", link, dir)
	}

	res = Download{ID: id, File: file, Dir: dir, Title: inf.Title, Duration: inf.Duration,
		Uploader: inf.Uploader, Thumbnail: inf.Thumbnail}
	if res.Uploader == "" {
		res.Uploader = inf.Channel
	}
	if res.Title == "" {
		res.Title = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	if res.Duration <= 0 && e.DurationService != nil && e.AudioFormat == "mp3" {
		res.Duration = e.DurationService.Duration(file)
	}
	if res.Duration < 0 {
		res.Duration = 0
	}

	if e.TagService != nil && e.AudioFormat == "mp3" {
		tags := media.Tags{Title: res.Title, Artist: res.Uploader, Album: "YouTube Music", Source: link}
		if tagErr := e.TagService.Tag(file, tags); tagErr != nil {
			log.Printf("[WARN] failed to tag %s: %v", file, tagErr)
		}
	}

	if fi, statErr := os.Stat(file); statErr == nil {
		res.Size = fi.Size()
	}
	log.Printf("[INFO] downloaded %s (%s) to %s, size: %s, duration: %.0fs",
		link, res.Title, file, humanize.Bytes(uint64(res.Size)), res.Duration) // nolint:gosec // size is never negative
	return res, nil
}

// resolveFile finds the transcoded file. Extractor reports the name before post-processing,
// so its extension is switched to the target format. If it is still missing, the directory is
// scanned for any file of the target format.
func (e *Extractor) resolveFile(dir string, inf info) (string, error) {
	ext := "." + strings.TrimPrefix(e.AudioFormat, ".")

	reported := inf.Filename
	if reported == "" {
		reported = inf.FilenameAlt
	}
	if reported == "" && len(inf.RequestedDownloads) > 0 {
		reported = inf.RequestedDownloads[0].Filepath
	}

	if reported != "" {
		if !filepath.IsAbs(reported) {
			reported = filepath.Join(dir, reported)
		}
		if cur := filepath.Ext(reported); cur != ext {
			reported = strings.TrimSuffix(reported, cur) + ext
		}
		if _, err := os.Stat(reported); err == nil {
			return reported, nil
		}
		log.Printf("[DEBUG] reported file %s not found, scanning %s", reported, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrapf(err, "can't read %s", dir)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", ErrNoFile
}
