package pricing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/raine/lootlook/internal/appraisal"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultSerpAPIBaseURL = "https://serpapi.com"
	DefaultRatePerSecond  = 2.0

	shoppingEngine = "google_shopping"
	resultsPerPage = 30

	// SerpApi answers 200 with this error when the search simply found nothing.
	noResultsError = "Google hasn't returned any results for this query."
)

type SerpAPIConfig struct {
	APIKey        string
	BaseURL       string
	RatePerSecond float64
	Timeout       time.Duration
	// Logger receives resty's transport warnings. Defaults to the global logger.
	Logger *zerolog.Logger
}

// SerpAPIClient looks up Google Shopping listing prices through SerpApi.
type SerpAPIClient struct {
	httpClient *resty.Client
	apiKey     string
	limiter    *rate.Limiter
}

type shoppingResult struct {
	Title          string   `json:"title"`
	Price          string   `json:"price"`
	ExtractedPrice *float64 `json:"extracted_price"`
	Source         string   `json:"source"`
}

type searchResponse struct {
	ShoppingResults []shoppingResult `json:"shopping_results"`
	Error           string           `json:"error"`
}

func NewSerpAPIClient(cfg SerpAPIConfig) (*SerpAPIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("serpapi api key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultSerpAPIBaseURL
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	httpClient := resty.New().
		SetLogger(restyLogger{logger: logger.With().Str("component", "serpapi").Logger()}).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			}
			return res.StatusCode() == http.StatusTooManyRequests || res.StatusCode() >= 500
		})
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}

	return &SerpAPIClient{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// LookupPrices implements appraisal.Pricer.
func (c *SerpAPIClient) LookupPrices(ctx context.Context, query string) ([]appraisal.RawPrice, error) {
	logger := zerolog.Ctx(ctx)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for serpapi rate limit: %w", err)
	}

	start := time.Now()
	result := &searchResponse{}
	_, err := handleError(c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":  shoppingEngine,
			"q":       query,
			"api_key": c.apiKey,
			"gl":      "us",
			"hl":      "en",
			"num":     strconv.Itoa(resultsPerPage),
		}).
		SetResult(result).
		SetError(result).
		Get("/search.json"))
	if err != nil {
		if result.Error != "" {
			err = fmt.Errorf("%w: %s", err, result.Error)
		}
		return nil, &appraisal.PricingError{Query: query, Err: err}
	}

	if result.Error != "" {
		if result.Error == noResultsError {
			logger.Warn().Str("query", query).Msg("no shopping results found")
			return []appraisal.RawPrice{}, nil
		}
		return nil, &appraisal.PricingError{Query: query, Err: errors.New(result.Error)}
	}

	prices := make([]appraisal.RawPrice, 0, len(result.ShoppingResults))
	for _, item := range result.ShoppingResults {
		if item.ExtractedPrice != nil {
			prices = append(prices, appraisal.PriceValue(*item.ExtractedPrice))
			continue
		}
		if strings.TrimSpace(item.Price) != "" {
			prices = append(prices, appraisal.PriceText(item.Price))
		}
	}

	logger.Debug().
		Str("query", query).
		Int("results", len(result.ShoppingResults)).
		Int("prices", len(prices)).
		Dur("took", time.Since(start)).
		Msg("serpapi lookup complete")

	return prices, nil
}

// handleError turns failing responses (>399 status code) into errors, which
// resty would otherwise report as nil.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redactURL(urlErr.URL)
		}
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, redactURL(res.Request.URL), res.StatusCode())
	}
	return res, nil
}

// redactURL drops the query string so the api key never ends up in errors or logs.
func redactURL(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
