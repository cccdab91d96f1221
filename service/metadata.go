package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

const GoogleBooksBase = "https://www.googleapis.com/books/v1/volumes"

var (
	// ErrNoMatch means the upstream answered but knows no book with that ISBN.
	ErrNoMatch = errors.New("no volume found")
	// ErrUnavailable means the circuit breaker is rejecting calls.
	ErrUnavailable = errors.New("metadata lookup temporarily unavailable")
)

// googleBooksVolumesResp is the response from GET /volumes?q=isbn:...
type googleBooksVolumesResp struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Subtitle            string   `json:"subtitle"`
			Authors             []string `json:"authors"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// BookMetadata is the suggestion returned to clients filling in a new book.
type BookMetadata struct {
	Title         string `json:"title"`
	Author        string `json:"author,omitempty"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
	ISBN          string `json:"isbn"`
}

// MetadataClient queries Google Books by ISBN behind a circuit breaker.
type MetadataClient struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*BookMetadata]
}

func NewMetadataClient(baseURL string, timeout time.Duration) *MetadataClient {
	if baseURL == "" {
		baseURL = GoogleBooksBase
	}
	cb := gobreaker.NewCircuitBreaker[*BookMetadata](gobreaker.Settings{
		Name:        "google-books",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// An unknown ISBN is a healthy answer.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoMatch)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return &MetadataClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

// NormalizeISBN strips spaces and hyphens.
func NormalizeISBN(isbn string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(isbn))
}

// LookupISBN fetches a title, author and cover suggestion for isbn.
func (c *MetadataClient) LookupISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("isbn is required")
	}
	meta, err := c.cb.Execute(func() (*BookMetadata, error) {
		return c.fetch(ctx, isbn)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrUnavailable
	}
	return meta, err
}

func (c *MetadataClient) fetch(ctx context.Context, isbn string) (*BookMetadata, error) {
	q := url.Values{}
	q.Set("q", "isbn:"+isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books returned %d", resp.StatusCode)
	}
	var data googleBooksVolumesResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode google books response: %w", err)
	}
	if data.TotalItems == 0 || len(data.Items) == 0 {
		return nil, fmt.Errorf("%w for isbn %s", ErrNoMatch, isbn)
	}
	vi := data.Items[0].VolumeInfo
	meta := &BookMetadata{
		Title:  vi.Title,
		Author: strings.Join(vi.Authors, ", "),
		ISBN:   isbn,
	}
	if vi.Subtitle != "" {
		meta.Title = meta.Title + ": " + vi.Subtitle
	}
	for _, id := range vi.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			meta.ISBN = id.Identifier
			break
		}
	}
	// Google Books image links often sit behind a captcha; Open Library serves covers by ISBN directly.
	meta.CoverImageURL = openLibraryCoverURL(meta.ISBN, "L")
	return meta, nil
}

// openLibraryCoverURL returns a direct cover image URL by ISBN. Size: S, M or L.
func openLibraryCoverURL(isbn, size string) string {
	clean := NormalizeISBN(isbn)
	if clean == "" {
		return ""
	}
	return "https://covers.openlibrary.org/b/isbn/" + url.PathEscape(clean) + "-" + size + ".jpg"
}
