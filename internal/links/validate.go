package links

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrURLEmpty is returned when a link URL is empty.
	ErrURLEmpty = errors.New("url must not be empty")

	// ErrURLFormat is returned when a link URL is not an absolute http(s) URL.
	ErrURLFormat = errors.New("url must be an absolute http or https URL")

	// ErrTitleEmpty is returned when a link title is empty.
	ErrTitleEmpty = errors.New("title must not be empty")

	// ErrInvalidType is returned for a type outside Types.
	ErrInvalidType = errors.New("invalid link type")

	// ErrInvalidMedium is returned for a medium outside Mediums.
	ErrInvalidMedium = errors.New("invalid link medium")

	// Types are the accepted link type tags.
	Types = []string{"free", "paid"}

	// Mediums are the accepted link medium tags.
	Mediums = []string{"video", "book"}
)

// ValidateURL checks that raw is an absolute http(s) URL with a host. It
// does NOT check uniqueness; that is handled at the store layer.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrURLEmpty
	}
	if raw != strings.TrimSpace(raw) {
		return ErrURLFormat
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrURLFormat
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrURLFormat
	}
	if u.Host == "" {
		return ErrURLFormat
	}
	return nil
}

// ValidateType checks t against Types.
func ValidateType(t string) error {
	if !contains(Types, t) {
		return errors.Wrapf(ErrInvalidType, "%q", t)
	}
	return nil
}

// ValidateMedium checks m against Mediums.
func ValidateMedium(m string) error {
	if !contains(Mediums, m) {
		return errors.Wrapf(ErrInvalidMedium, "%q", m)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
