// Package yahoo fetches daily closes from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/kabumemo/kabumemo/internal/clientdata"
	"github.com/kabumemo/kabumemo/internal/domain"
	"github.com/kabumemo/kabumemo/internal/utils"
	"github.com/rs/zerolog"
)

const userAgent = "Mozilla/5.0 (compatible; kabumemo/1.0)"

// Client for the Yahoo chart endpoint
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a chart API client.
// cacheRepo is optional - if nil, history caching is disabled
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "yahoo-chart").Logger(),
		cacheRepo: cacheRepo,
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		GMTOffset int `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func historyCacheKey(symbol, period string) string {
	return symbol + "|" + period
}

// DailyCloses returns the daily close series for symbol over period
// (a chart range such as "1y"). Fresh cached series are served without a
// request; when the request fails a stale cached series is returned instead.
// An unknown ticker yields an empty series.
func (c *Client) DailyCloses(ctx context.Context, symbol string, period string) ([]domain.PricePoint, error) {
	key := historyCacheKey(symbol, period)

	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(clientdata.TablePriceHistory, key)
		if err == nil && data != nil {
			var cached []domain.PricePoint
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("symbol", symbol).Str("period", period).Msg("Cache hit")
				return cached, nil
			}
		}
	}

	points, err := c.fetch(ctx, symbol, period)
	if err != nil {
		if stale, ok := c.getStaleFromCache(key); ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("API failed, using stale cached history")
			return stale, nil
		}
		return nil, err
	}

	if c.cacheRepo != nil && len(points) > 0 {
		if err := c.cacheRepo.Store(clientdata.TablePriceHistory, key, points, clientdata.TTLPriceHistory); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache price history")
		}
	}
	return points, nil
}

// LatestClose returns the most recent daily close for symbol. It always hits
// the API. ok is false when the provider has no data for the ticker.
func (c *Client) LatestClose(ctx context.Context, symbol string) (domain.PricePoint, bool, error) {
	points, err := c.fetch(ctx, symbol, "5d")
	if err != nil {
		return domain.PricePoint{}, false, err
	}
	if len(points) == 0 {
		return domain.PricePoint{}, false, nil
	}
	return points[len(points)-1], true, nil
}

func (c *Client) getStaleFromCache(key string) ([]domain.PricePoint, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	data, err := c.cacheRepo.Get(clientdata.TablePriceHistory, key)
	if err != nil || data == nil {
		return nil, false
	}
	var cached []domain.PricePoint
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	return cached, true
}

func (c *Client) fetch(ctx context.Context, symbol, period string) ([]domain.PricePoint, error) {
	params := url.Values{}
	params.Set("range", period)
	params.Set("interval", "1d")
	params.Set("includePrePost", "false")
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", reqURL).Msg("Fetching chart")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	// Unknown tickers come back as 404 with a chart error body.
	if resp.StatusCode == http.StatusNotFound {
		return []domain.PricePoint{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var body chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", body.Chart.Error.Code, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 {
		return []domain.PricePoint{}, nil
	}

	return parseCloses(body.Chart.Result[0]), nil
}

// parseCloses pairs timestamps with closes, dropping null and non-finite values.
// Dates are taken in the exchange's local time.
func parseCloses(result chartResult) []domain.PricePoint {
	points := []domain.PricePoint{}
	if len(result.Indicators.Quote) == 0 {
		return points
	}
	closes := result.Indicators.Quote[0].Close
	offset := time.Duration(result.Meta.GMTOffset) * time.Second

	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		v := *closes[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		date := domain.DateOf(time.Unix(ts, 0).UTC().Add(offset))
		// Intraday updates repeat the session date; keep the latest value.
		if n := len(points); n > 0 && points[n-1].Date.Equal(date) {
			points[n-1].Close = utils.Round6(v)
			continue
		}
		points = append(points, domain.PricePoint{Date: date, Close: utils.Round6(v)})
	}
	return points
}
