package media

import (
	"fmt"

	"github.com/bogem/id3v2/v2"
)

// Tags defines id3 fields written to the delivered file
type Tags struct {
	Title  string
	Artist string
	Album  string
	Source string // link the track was downloaded from, stored as a comment
}

// Tagger writes id3v2 tags into mp3 files
type Tagger struct{}

// Tag replaces id3 tags of the file. Empty fields are not written.
func (t *Tagger) Tag(fname string, tags Tags) error {
	fh, err := id3v2.Open(fname, id3v2.Options{Parse: false})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fname, err)
	}
	defer fh.Close()

	fh.SetDefaultEncoding(id3v2.EncodingUTF8)
	if tags.Title != "" {
		fh.SetTitle(tags.Title)
	}
	if tags.Artist != "" {
		fh.SetArtist(tags.Artist)
	}
	if tags.Album != "" {
		fh.SetAlbum(tags.Album)
	}
	if tags.Source != "" {
		fh.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "source",
			Text:        tags.Source,
		})
	}

	if err = fh.Save(); err != nil {
		return fmt.Errorf("failed to save tags to %s: %w", fname, err)
	}
	return nil
}
