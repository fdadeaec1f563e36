package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrCountryNotFound = errors.New("country not found")
	ErrTimeout         = errors.New("Request timeout")
	ErrNetwork         = errors.New("Network error")
	ErrUpstream        = errors.New("API Error")
)

const userAgent = "HealthStatsApp/2025"

// Sources holds the upstream endpoints. DiseaseSh and WorldBank are base
// URLs; OWID and CDC point at the dataset itself.
type Sources struct {
	DiseaseSh   string
	WorldBank   string
	OWID        string
	CDC         string
	CDCAppToken string
}

type Client struct {
	httpClient     *http.Client
	sources        Sources
	countryTimeout time.Duration
	log            *zap.Logger
}

func NewClient(httpClient *http.Client, sources Sources, countryTimeout time.Duration, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	sources.DiseaseSh = strings.TrimRight(sources.DiseaseSh, "/")
	sources.WorldBank = strings.TrimRight(sources.WorldBank, "/")
	return &Client{
		httpClient:     httpClient,
		sources:        sources,
		countryTimeout: countryTimeout,
		log:            log,
	}
}

// checkResp returns an error carrying the upstream body for non-2xx answers.
func checkResp(resp *http.Response, service string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s error %d: %s", service, resp.StatusCode, strings.TrimSpace(string(body)))
}

func (c *Client) get(ctx context.Context, rawURL, accept string, header map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	return c.httpClient.Do(req)
}

// FetchCountry loads the COVID-19 country record. It is the only source a
// search cannot do without, and the only one bound by its own timeout.
func (c *Client) FetchCountry(ctx context.Context, name string, l *searchLog) (*CountryData, error) {
	if c.countryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.countryTimeout)
		defer cancel()
	}

	l.note(fmt.Sprintf("Fetching REAL data for %s...", name))

	data, err := c.fetchCountry(ctx, name)
	if err != nil {
		err = classify(ctx, err)
		l.fail(err.Error(), fmt.Sprintf("Failed to fetch REAL statistics for %s. Check country name spelling.", name))
		return nil, err
	}

	country := data.Country
	if country == "" {
		country = name
	}
	l.note(fmt.Sprintf("Successfully loaded REAL COVID-19 data for %s", country))
	l.note("Adding World Bank (TB/HIV/Malaria), OWID (Measles), and CDC (US weekly) if available")
	return data, nil
}

func (c *Client) fetchCountry(ctx context.Context, name string) (*CountryData, error) {
	u := c.sources.DiseaseSh + "/v3/covid-19/countries/" + url.PathEscape(name)
	resp, err := c.get(ctx, u, "application/json", map[string]string{"User-Agent": userAgent})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: Country %q not found or HTTP %d: %s",
			ErrCountryNotFound, name, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var data CountryData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode disease.sh response: %v", ErrUpstream, err)
	}
	return &data, nil
}

// classify maps a raw fetch failure onto the user-facing error kinds.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrCountryNotFound), errors.Is(err, ErrUpstream):
		return err
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		var uerr *url.Error
		if errors.As(err, &uerr) {
			if uerr.Timeout() {
				return ErrTimeout
			}
			return fmt.Errorf("%w: %v", ErrNetwork, uerr.Err)
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
}
