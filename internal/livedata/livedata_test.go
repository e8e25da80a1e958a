package livedata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCoinGeckoClientCoinData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/simple/price" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ids := r.URL.Query().Get("ids"); ids != "bitcoin" {
			t.Errorf("ids = %q", ids)
		}
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":64123.5,"usd_24h_change":2.1}}`))
	}))
	defer srv.Close()

	client := NewCoinGeckoClient(srv.URL)
	got, err := client.CoinData(context.Background(), "")
	if err != nil {
		t.Fatalf("CoinData() error = %v", err)
	}
	if !strings.Contains(got, "bitcoin") || !strings.Contains(got, "$64123.50") {
		t.Errorf("CoinData() = %q", got)
	}
	if !strings.Contains(got, "+2.10%") {
		t.Errorf("CoinData() missing 24h change: %q", got)
	}
}

func TestCoinGeckoClientUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewCoinGeckoClient(srv.URL)
	if _, err := client.CoinData(context.Background(), "notacoin"); err == nil {
		t.Error("CoinData() accepted a response without the asset")
	}
}

func TestNewsClientTopHeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.URL.Query().Get("apiKey"); key != "news-key" {
			t.Errorf("apiKey = %q", key)
		}
		_, _ = w.Write([]byte(`{"articles":[{"title":"Something happened","source":{"name":"Wire"}}]}`))
	}))
	defer srv.Close()

	client := NewNewsClient(srv.URL, "news-key")
	got, err := client.TopHeadline(context.Background())
	if err != nil {
		t.Fatalf("TopHeadline() error = %v", err)
	}
	if got != "Something happened (Wire)" {
		t.Errorf("TopHeadline() = %q", got)
	}
}

func TestWeatherClientCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if city := r.URL.Query().Get("q"); city != "Berlin" {
			t.Errorf("q = %q", city)
		}
		_, _ = w.Write([]byte(`{"weather":[{"description":"light rain"}],"main":{"temp":14.2},"name":"Berlin"}`))
	}))
	defer srv.Close()

	client := NewWeatherClient(srv.URL, "weather-key")
	got, err := client.Current(context.Background(), "Berlin")
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got != "light rain, 14°C in Berlin" {
		t.Errorf("Current() = %q", got)
	}
}

func TestRatesClientRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if from := r.URL.Query().Get("from"); from != "USD" {
			t.Errorf("from = %q", from)
		}
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.9213}}`))
	}))
	defer srv.Close()

	client := NewRatesClient(srv.URL)
	got, err := client.Rate(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if got != "1 USD = 0.9213 EUR" {
		t.Errorf("Rate() = %q", got)
	}
}

func TestGetJSONNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewRatesClient(srv.URL)
	if _, err := client.Rate(context.Background(), "USD", "EUR"); err == nil {
		t.Error("Rate() ignored a non-200 status")
	}
}
