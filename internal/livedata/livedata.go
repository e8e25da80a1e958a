// Package livedata fetches the optional external signals a bot can mix
// into its posts: crypto market data, a news headline, weather, and an
// exchange rate. Every fetch is best-effort; callers treat any error as
// "field absent".
package livedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// CoinSource reports current market data for a crypto asset.
type CoinSource interface {
	CoinData(ctx context.Context, symbol string) (string, error)
}

// NewsSource reports one current headline.
type NewsSource interface {
	TopHeadline(ctx context.Context) (string, error)
}

// WeatherSource reports current conditions for a city.
type WeatherSource interface {
	Current(ctx context.Context, city string) (string, error)
}

// RateSource reports a currency exchange rate.
type RateSource interface {
	Rate(ctx context.Context, base, quote string) (string, error)
}

// Sources bundles the configured fetchers. A nil field means that source
// is disabled globally (usually a missing API key) and bots requesting it
// simply post without that context.
type Sources struct {
	Coin    CoinSource
	News    NewsSource
	Weather WeatherSource
	Rates   RateSource
}

const requestTimeout = 10 * time.Second

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// CoinGeckoClient implements CoinSource against the CoinGecko simple-price
// API, which needs no key.
type CoinGeckoClient struct {
	baseURL string
	client  *http.Client
}

// NewCoinGeckoClient creates a market-data fetcher. An empty baseURL
// targets the public API.
func NewCoinGeckoClient(baseURL string) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com"
	}
	return &CoinGeckoClient{baseURL: baseURL, client: &http.Client{Timeout: requestTimeout}}
}

// CoinData returns a one-line price summary for symbol (a CoinGecko asset
// id, default bitcoin).
func (c *CoinGeckoClient) CoinData(ctx context.Context, symbol string) (string, error) {
	if symbol == "" {
		symbol = "bitcoin"
	}

	q := url.Values{}
	q.Set("ids", symbol)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")

	var parsed map[string]struct {
		USD       float64 `json:"usd"`
		Change24h float64 `json:"usd_24h_change"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/api/v3/simple/price?"+q.Encode(), &parsed); err != nil {
		return "", fmt.Errorf("coin price: %w", err)
	}

	data, ok := parsed[symbol]
	if !ok {
		return "", fmt.Errorf("coin price: no data for %q", symbol)
	}
	return fmt.Sprintf("%s at $%.2f USD (%+.2f%% over 24h)", symbol, data.USD, data.Change24h), nil
}

// NewsClient implements NewsSource against a NewsAPI-style top-headlines
// endpoint. Requires an API key.
type NewsClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewNewsClient creates a headline fetcher.
func NewNewsClient(baseURL, apiKey string) *NewsClient {
	if baseURL == "" {
		baseURL = "https://newsapi.org"
	}
	return &NewsClient{baseURL: baseURL, apiKey: apiKey, client: &http.Client{Timeout: requestTimeout}}
}

// TopHeadline returns the current top headline with its source name.
func (c *NewsClient) TopHeadline(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("language", "en")
	q.Set("pageSize", "1")
	q.Set("apiKey", c.apiKey)

	var parsed struct {
		Articles []struct {
			Title  string `json:"title"`
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/v2/top-headlines?"+q.Encode(), &parsed); err != nil {
		return "", fmt.Errorf("headline: %w", err)
	}
	if len(parsed.Articles) == 0 {
		return "", fmt.Errorf("headline: no articles returned")
	}

	a := parsed.Articles[0]
	if a.Source.Name != "" {
		return fmt.Sprintf("%s (%s)", a.Title, a.Source.Name), nil
	}
	return a.Title, nil
}

// WeatherClient implements WeatherSource against an OpenWeatherMap-style
// current-conditions endpoint. Requires an API key.
type WeatherClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewWeatherClient creates a weather fetcher.
func NewWeatherClient(baseURL, apiKey string) *WeatherClient {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org"
	}
	return &WeatherClient{baseURL: baseURL, apiKey: apiKey, client: &http.Client{Timeout: requestTimeout}}
}

// Current returns a one-line conditions summary for city (default New York).
func (c *WeatherClient) Current(ctx context.Context, city string) (string, error) {
	if city == "" {
		city = "New York"
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	var parsed struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Name string `json:"name"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/data/2.5/weather?"+q.Encode(), &parsed); err != nil {
		return "", fmt.Errorf("weather: %w", err)
	}
	if len(parsed.Weather) == 0 {
		return "", fmt.Errorf("weather: no conditions returned")
	}

	return fmt.Sprintf("%s, %.0f°C in %s", parsed.Weather[0].Description, parsed.Main.Temp, parsed.Name), nil
}

// RatesClient implements RateSource against a Frankfurter-style exchange
// rate API, which needs no key.
type RatesClient struct {
	baseURL string
	client  *http.Client
}

// NewRatesClient creates an exchange-rate fetcher.
func NewRatesClient(baseURL string) *RatesClient {
	if baseURL == "" {
		baseURL = "https://api.frankfurter.app"
	}
	return &RatesClient{baseURL: baseURL, client: &http.Client{Timeout: requestTimeout}}
}

// Rate returns the base→quote rate (defaults USD→EUR).
func (c *RatesClient) Rate(ctx context.Context, base, quote string) (string, error) {
	if base == "" {
		base = "USD"
	}
	if quote == "" {
		quote = "EUR"
	}

	q := url.Values{}
	q.Set("from", base)
	q.Set("to", quote)

	var parsed struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/latest?"+q.Encode(), &parsed); err != nil {
		return "", fmt.Errorf("exchange rate: %w", err)
	}

	rate, ok := parsed.Rates[quote]
	if !ok {
		return "", fmt.Errorf("exchange rate: no rate for %s", quote)
	}
	return fmt.Sprintf("1 %s = %.4f %s", base, rate, quote), nil
}
