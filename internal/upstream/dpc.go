// Package upstream implements the covid.Source contract against the
// Protezione Civile COVID-19 provincial dataset.
package upstream

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/mrusso19/covid-data-aggregation/internal/covid"
)

const (
	// DefaultJSONBaseURL hosts the single "latest" provincial resource.
	DefaultJSONBaseURL = "https://raw.githubusercontent.com/pcm-dpc/COVID-19/master/dati-json"

	// DefaultCSVBaseURL hosts the dated provincial resources.
	DefaultCSVBaseURL = "https://raw.githubusercontent.com/pcm-dpc/COVID-19/master/dati-province"

	latestFilename      = "dpc-covid19-ita-province-latest.json"
	datedFilenameFormat = "dpc-covid19-ita-province-%s.csv" // %s = YYYYMMDD
)

// The upstream frontend rejects requests without a recognizable client
// identity.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var (
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// Client fetches raw province rows over HTTP. It issues exactly one request
// per call: retry policy belongs to callers. A circuit breaker fails fast
// while the upstream keeps erroring.
type Client struct {
	httpClient  *http.Client
	jsonBaseURL string
	csvBaseURL  string
	circuit     *gobreaker.CircuitBreaker
}

// NewClient builds a Client. Empty base URLs select the public dataset.
func NewClient(httpClient *http.Client, jsonBaseURL, csvBaseURL string) *Client {
	if jsonBaseURL == "" {
		jsonBaseURL = DefaultJSONBaseURL
	}
	if csvBaseURL == "" {
		csvBaseURL = DefaultCSVBaseURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dpc-upstream",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		httpClient:  httpClient,
		jsonBaseURL: jsonBaseURL,
		csvBaseURL:  csvBaseURL,
		circuit:     cb,
	}
}

// FetchLatest retrieves and decodes the "latest" JSON resource.
func (c *Client) FetchLatest(ctx context.Context) ([]covid.RawProvinceRecord, error) {
	url := fmt.Sprintf("%s/%s", c.jsonBaseURL, latestFilename)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var records []covid.RawProvinceRecord
	if err := json.NewDecoder(body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode latest json from %s: %w", url, err)
	}
	return records, nil
}

// FetchByDate retrieves and decodes the dated CSV resource for d.
func (c *Client) FetchByDate(ctx context.Context, d time.Time) ([]covid.RawProvinceRecord, error) {
	filename := fmt.Sprintf(datedFilenameFormat, d.Format("20060102"))
	url := fmt.Sprintf("%s/%s", c.csvBaseURL, filename)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	records, err := decodeCSV(body)
	if err != nil {
		return nil, fmt.Errorf("decode csv from %s: %w", url, err)
	}
	return records, nil
}

// get performs the single outbound request. Transport errors and 5xx
// responses count against the breaker; a 404 is a valid upstream answer
// ("nothing published for this key") and must not trip it.
func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d from %s", errServerError, resp.StatusCode, url)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", covid.ErrSourceNotFound, url)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d from %s", errUnexpected, resp.StatusCode, url)
	}

	return resp.Body, nil
}

// decodeCSV maps each row of a header-prefixed CSV document into a field bag
// keyed by the header names. Short rows leave their trailing fields absent,
// matching how the JSON feed omits fields.
func decodeCSV(r io.Reader) ([]covid.RawProvinceRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []covid.RawProvinceRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		rec := make(covid.RawProvinceRecord, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
