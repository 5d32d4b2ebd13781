package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPError is a non-2xx response from the TMDb API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("tmdb: status=%d body=%s", e.StatusCode, e.Body)
}

// Client talks to The Movie Database REST API v3.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
}

func New(baseURL, apiKey string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("tmdb: base url required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb: api key required")
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		timeout:    30 * time.Second,
		maxRetries: 3,
		httpClient: &http.Client{Transport: tr},
	}, nil
}

// NewWithHTTPClient is intended for tests; it avoids network access by using a custom RoundTripper.
func NewWithHTTPClient(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	c, err := New(baseURL, apiKey)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

// PagedMovies is one page of a movie list endpoint.
type PagedMovies struct {
	Page         int           `json:"page"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
	Results      []MovieResult `json:"results"`
}

// MovieResult is the list-endpoint shape; it carries genre ids, not names.
type MovieResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int64 `json:"genre_ids"`
}

// MovieDetails is the detail-endpoint shape with expanded names.
type MovieDetails struct {
	ID                  int64       `json:"id"`
	Title               string      `json:"title"`
	Overview            string      `json:"overview"`
	ReleaseDate         string      `json:"release_date"`
	PosterPath          string      `json:"poster_path"`
	BackdropPath        string      `json:"backdrop_path"`
	VoteAverage         float64     `json:"vote_average"`
	VoteCount           int64       `json:"vote_count"`
	Popularity          float64     `json:"popularity"`
	Genres              []NamedItem `json:"genres"`
	ProductionCountries []struct {
		ISO  string `json:"iso_3166_1"`
		Name string `json:"name"`
	} `json:"production_countries"`
	SpokenLanguages []struct {
		ISO  string `json:"iso_639_1"`
		Name string `json:"english_name"`
	} `json:"spoken_languages"`
}

type NamedItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Credits holds cast and crew for one movie.
type Credits struct {
	ID   int64 `json:"id"`
	Cast []struct {
		Name  string `json:"name"`
		Order int    `json:"order"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

// Directors returns crew members whose job is Director, in listing order.
func (c *Credits) Directors() []string {
	var out []string
	for _, m := range c.Crew {
		if m.Job == "Director" {
			out = append(out, m.Name)
		}
	}
	return out
}

// CastNames returns up to limit cast names in billing order.
func (c *Credits) CastNames(limit int) []string {
	var out []string
	for _, m := range c.Cast {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, m.Name)
	}
	return out
}

// Keywords is the keyword-endpoint shape.
type Keywords struct {
	ID       int64       `json:"id"`
	Keywords []NamedItem `json:"keywords"`
}

func (k *Keywords) Names(limit int) []string {
	var out []string
	for _, kw := range k.Keywords {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, kw.Name)
	}
	return out
}

// PopularMovies fetches one page of the popular-movies chart.
func (c *Client) PopularMovies(ctx context.Context, page int) (*PagedMovies, error) {
	if page < 1 {
		page = 1
	}
	var out PagedMovies
	if err := c.getJSON(ctx, "/movie/popular", url.Values{"page": {strconv.Itoa(page)}}, &out); err != nil {
		return nil, fmt.Errorf("popular movies page %d: %w", page, err)
	}
	return &out, nil
}

// Details fetches the expanded record for one movie.
func (c *Client) Details(ctx context.Context, tmdbID int64) (*MovieDetails, error) {
	var out MovieDetails
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", tmdbID), nil, &out); err != nil {
		return nil, fmt.Errorf("movie details %d: %w", tmdbID, err)
	}
	return &out, nil
}

// MovieCredits fetches cast and crew for one movie.
func (c *Client) MovieCredits(ctx context.Context, tmdbID int64) (*Credits, error) {
	var out Credits
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d/credits", tmdbID), nil, &out); err != nil {
		return nil, fmt.Errorf("movie credits %d: %w", tmdbID, err)
	}
	return &out, nil
}

// MovieKeywords fetches keywords for one movie.
func (c *Client) MovieKeywords(ctx context.Context, tmdbID int64) (*Keywords, error) {
	var out Keywords
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d/keywords", tmdbID), nil, &out); err != nil {
		return nil, fmt.Errorf("movie keywords %d: %w", tmdbID, err)
	}
	return &out, nil
}

// getJSON issues a GET with the api key attached and retries rate limits and
// server errors with backoff.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	fullURL := c.baseURL + path + "?" + query.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		err := c.doOnce(ctx, fullURL, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode != http.StatusTooManyRequests && httpErr.StatusCode < 500 {
				return err
			}
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, fullURL string, out any) error {
	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx2, http.MethodGet, fullURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
