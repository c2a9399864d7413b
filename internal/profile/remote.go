package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
)

var (
	ErrRemoteStatus  = errors.New(config.ErrRemoteStatus)
	ErrNotVCard      = errors.New(config.ErrNotVCard)
	ErrVCardTooLarge = errors.New(config.ErrVCardTooLarge)
)

// vcardTypes are the media types a contact card is served with. text/plain covers
// static hosts that do not know the .vcf extension; a missing Content-Type is accepted too.
var vcardTypes = map[string]bool{
	"text/vcard":     true,
	"text/x-vcard":   true,
	"text/directory": true,
	"text/plain":     true,
}

// Fetcher retrieves a vCard document over the network.
type Fetcher interface {
	Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error)
}

// CardFetcher downloads a single contact card, as exported by a CardDAV server
// or shared from a web folder.
type CardFetcher struct {
	Client   *http.Client
	MaxBytes int64 // zero selects config.MaxHTTPResponseSize
}

// NewCardFetcher returns a fetcher with the default timeout and size limit.
func NewCardFetcher() *CardFetcher {
	return &CardFetcher{
		Client:   &http.Client{Timeout: config.HTTPTimeout},
		MaxBytes: config.MaxHTTPResponseSize,
	}
}

// Fetch issues an authenticated GET for the card. Responses that are not a 200
// carrying a vCard media type are rejected before any byte is read. Reading past
// MaxBytes fails with ErrVCardTooLarge.
func (f *CardFetcher) Fetch(ctx context.Context, rawURL, user, pass string) (io.ReadCloser, error) {
	req, err := cardRequest(ctx, rawURL, user, pass)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrProfileImport, err)
	}

	log := slog.With(
		config.LogKeyComponent, config.CompProfile,
		config.LogKeyURL, redact(req.URL),
	)
	log.Debug(config.MsgProfileDownload)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrProfileImport, err)
	}
	if err := acceptCard(resp); err != nil {
		_ = resp.Body.Close()
		log.Warn(config.ErrProfileImport,
			config.LogKeyStatus, resp.StatusCode,
			config.LogKeyMimeType, resp.Header.Get(config.HeaderContentType),
			config.LogKeyError, err)
		return nil, fmt.Errorf("%s: %w", config.ErrProfileImport, err)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = config.MaxHTTPResponseSize
	}
	return &cardBody{body: resp.Body, limit: limit, log: log}, nil
}

func cardRequest(ctx context.Context, rawURL, user, pass string) (*http.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, config.AcceptVCard)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}
	return req, nil
}

func acceptCard(resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrRemoteStatus, resp.Status)
	}
	ct := resp.Header.Get(config.HeaderContentType)
	if ct == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || !vcardTypes[mediaType] {
		return fmt.Errorf("%w: %s", ErrNotVCard, ct)
	}
	return nil
}

// redact drops credentials and the query string, which may carry tokens.
func redact(u *url.URL) string {
	c := *u
	c.User = nil
	c.RawQuery = ""
	return c.String()
}

// cardBody caps the response and logs how much was read once closed.
type cardBody struct {
	body  io.ReadCloser
	limit int64
	read  int64
	log   *slog.Logger
}

func (b *cardBody) Read(p []byte) (int, error) {
	if b.read > b.limit {
		return 0, ErrVCardTooLarge
	}
	// One byte past the limit is enough to tell a full card from a truncated one.
	if room := b.limit - b.read + 1; int64(len(p)) > room {
		p = p[:room]
	}
	n, err := b.body.Read(p)
	b.read += int64(n)
	if b.read > b.limit {
		return n - int(b.read-b.limit), ErrVCardTooLarge
	}
	return n, err
}

func (b *cardBody) Close() error {
	b.log.Debug(config.MsgProfileReceived, config.LogKeySizeBytes, min(b.read, b.limit))
	return b.body.Close()
}
