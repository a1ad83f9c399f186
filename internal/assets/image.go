package assets

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"
)

// ErrInvalidImage is returned when an embedded image payload cannot be decoded.
var ErrInvalidImage = errors.New("invalid image payload")

// Image is a decoded data-URI image.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeImage parses a data URI such as "data:image/png;base64,..." into raw
// bytes. The media type must be image/*; the file extension is taken from
// the subtype ("svg+xml" becomes "svg").
func DecodeImage(uri string) (*Image, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.Wrap(ErrInvalidImage, "empty payload")
	}
	du, err := dataurl.DecodeString(uri)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidImage, "decode data uri: %v", err)
	}
	if du.MediaType.Type != "image" || du.MediaType.Subtype == "" {
		return nil, errors.Wrapf(ErrInvalidImage, "unsupported media type %q", du.MediaType.ContentType())
	}
	if len(du.Data) == 0 {
		return nil, errors.Wrap(ErrInvalidImage, "no image data")
	}

	ext := strings.ToLower(du.MediaType.Subtype)
	if i := strings.IndexByte(ext, '+'); i > 0 {
		ext = ext[:i]
	}
	return &Image{
		Data:        du.Data,
		ContentType: du.MediaType.ContentType(),
		Ext:         ext,
	}, nil
}
