// Package profile imports the baby profile (name and birth date) from a vCard.
package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/engine"
	"github.com/emersion/go-vcard"
)

var ErrNoBirthday = errors.New(config.ErrNoBirthday)

// Source locates the vCard. URL takes precedence over Path.
type Source struct {
	Path string
	URL  string
	User string
	Pass string
}

// Importer reads a profile from a local file or a CardDAV/WebDAV URL.
type Importer struct {
	Fetcher Fetcher
}

// Import reads src in full, then returns the first card carrying a full birth date.
func (i *Importer) Import(ctx context.Context, src Source) (engine.Profile, error) {
	r, err := i.acquireStream(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return engine.Profile{}, ctx.Err()
		}
		return engine.Profile{}, err
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		if ctx.Err() != nil {
			return engine.Profile{}, ctx.Err()
		}
		return engine.Profile{}, fmt.Errorf("%s: %w", config.ErrProfileImport, err)
	}
	return Decode(ctx, bytes.NewReader(data))
}

// acquireStream opens the card. Remote errors come back from the Fetcher as they are.
func (i *Importer) acquireStream(ctx context.Context, src Source) (io.ReadCloser, error) {
	switch {
	case src.URL != "":
		if i.Fetcher == nil {
			return nil, fmt.Errorf("%s: %s", config.ErrProfileImport, config.ErrFetcherMissing)
		}
		return i.Fetcher.Fetch(ctx, src.URL, src.User, src.Pass)
	case src.Path != "":
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrProfileImport, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%s: %s", config.ErrProfileImport, config.ErrLocalPathEmpty)
	}
}

// Decode scans the cards of r. Malformed cards and cards without a year in BDAY are skipped.
func Decode(ctx context.Context, r io.Reader) (engine.Profile, error) {
	decoder := vcard.NewDecoder(r)
	for {
		if err := ctx.Err(); err != nil {
			return engine.Profile{}, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompProfile,
				config.LogKeyError, err)
			continue
		}

		bday := card.Get(config.VCardBDAY)
		if bday == nil || bday.Value == "" {
			continue
		}
		birth, yearKnown, err := parseDate(bday.Value)
		if err != nil || !yearKnown {
			slog.Debug(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompProfile,
				config.LogKeyValue, bday.Value)
			continue
		}

		// FN (Formatted) > N (Structured) > Fallback
		name := config.FallbackName
		if fn := card.Get(config.VCardFN); fn != nil && fn.Value != "" {
			name = fn.Value
		} else if n := card.Name(); n != nil {
			if full := strings.TrimSpace(n.GivenName + " " + n.FamilyName); full != "" {
				name = full
			}
		}

		slog.Info(config.MsgProfileImported,
			config.LogKeyComponent, config.CompProfile,
			config.LogKeyName, name)
		return engine.Profile{Name: name, BirthDate: birth}, nil
	}
	return engine.Profile{}, ErrNoBirthday
}

// parseDate handles the vCard date forms. The bool reports whether the year was present;
// truncated dates land in a leap year so Feb 29 survives.
func parseDate(value string) (time.Time, bool, error) {
	formatsWithYear := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formatsWithYear {
		if t, err := time.Parse(f, value); err == nil {
			return t, true, nil
		}
	}

	formatsWithoutYear := []string{config.DateFormatNoYearD, config.DateFormatNoYearB}
	for _, f := range formatsWithoutYear {
		if t, err := time.Parse(f, value); err == nil {
			return time.Date(config.DefaultLeapYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), false, nil
		}
	}

	return time.Time{}, false, errors.New(config.ErrDateParse)
}
