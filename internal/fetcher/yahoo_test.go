package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// chartJSON builds a minimal chart API payload. A nil entry in closes
// produces a JSON null bar.
func chartJSON(timestamps []int64, closes []interface{}) string {
	ts := ""
	for i, t := range timestamps {
		if i > 0 {
			ts += ","
		}
		ts += fmt.Sprintf("%d", t)
	}
	quote := func() string {
		s := ""
		for i, c := range closes {
			if i > 0 {
				s += ","
			}
			if c == nil {
				s += "null"
			} else {
				s += fmt.Sprintf("%v", c)
			}
		}
		return s
	}()
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"timestamp": [%s],
				"indicators": {"quote": [{
					"open": [%s], "high": [%s], "low": [%s],
					"close": [%s], "volume": [%s]
				}]}
			}],
			"error": null
		}
	}`, ts, quote, quote, quote, quote, quote)
}

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/RELIANCE.NS" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("expected interval 1d, got %s", got)
		}
		fmt.Fprint(w, chartJSON(
			[]int64{base, base + day, base + 2*day},
			[]interface{}{100.0, 101.5, 102.0},
		))
	}))
	defer srv.Close()

	f := NewYahooFetcherWithBaseURL(srv.URL)
	bars, err := f.FetchDailyBars(context.Background(), "RELIANCE.NS", 365)
	if err != nil {
		t.Fatalf("FetchDailyBars failed: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if bars[0].Close != 100.0 || bars[2].Close != 102.0 {
		t.Errorf("unexpected closes: %v, %v", bars[0].Close, bars[2].Close)
	}
	if !bars[0].Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected first date: %v", bars[0].Date)
	}
}

func TestYahooFetcher_SkipsNullBars(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartJSON(
			[]int64{base, base + day, base + 2*day},
			[]interface{}{100.0, nil, 102.0},
		))
	}))
	defer srv.Close()

	f := NewYahooFetcherWithBaseURL(srv.URL)
	bars, err := f.FetchDailyBars(context.Background(), "TCS.NS", 365)
	if err != nil {
		t.Fatalf("FetchDailyBars failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected null bar skipped, got %d bars", len(bars))
	}
}

func TestYahooFetcher_RaggedPayload(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	// Three timestamps but only two complete OHLCV positions.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"chart": {
				"result": [{
					"timestamp": [%d, %d, %d],
					"indicators": {"quote": [{
						"open": [100.0, 101.0],
						"high": [101.0, 102.0, 103.0],
						"low": [99.0, 100.0, 101.0],
						"close": [100.5, 101.5, 102.5],
						"volume": [1000, 1100]
					}]}
				}],
				"error": null
			}
		}`, base, base+day, base+2*day)
	}))
	defer srv.Close()

	f := NewYahooFetcherWithBaseURL(srv.URL)
	bars, err := f.FetchDailyBars(context.Background(), "INFY.NS", 365)
	if err != nil {
		t.Fatalf("FetchDailyBars failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected the short arrays to bound the bars at 2, got %d", len(bars))
	}
	if bars[1].Close != 101.5 {
		t.Errorf("unexpected last close: %v", bars[1].Close)
	}
}

func TestYahooFetcher_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": [], "error": null}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcherWithBaseURL(srv.URL)
	_, err := f.FetchDailyBars(context.Background(), "GHOST.NS", 365)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcherWithBaseURL(srv.URL)
	_, err := f.FetchDailyBars(context.Background(), "BAD.NS", 365)
	if err == nil {
		t.Fatal("expected error for API error payload")
	}
}

func TestYahooFetcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewYahooFetcherWithBaseURL(srv.URL)
	_, err := f.FetchDailyBars(context.Background(), "ANY.NS", 365)
	if err == nil {
		t.Fatal("expected error for HTTP 429")
	}
}
