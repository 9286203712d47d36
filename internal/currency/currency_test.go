package currency

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"BitcoinAdvisor/internal/apperr"
	"BitcoinAdvisor/internal/httpclient"
	"BitcoinAdvisor/internal/metrics"
)

func testClient() *httpclient.Client {
	return httpclient.NewClient(httpclient.ClientOptions{
		Timeout:         2 * time.Second,
		RequestsPerSec:  100,
		MaxRetries:      1,
		InitialInterval: time.Millisecond,
		MaxElapsed:      time.Second,
	})
}

func TestHTTPConverter_LiveAndCached(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/USD" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"result":"success","rates":{"IDR":15800.5,"EUR":0.92}}`)
	}))
	defer srv.Close()

	c := NewHTTPConverter(srv.URL+"/", testClient(), time.Hour)
	q, err := c.Rate(context.Background(), "usd", "idr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Rate != 15800.5 || q.Source != SourceLive || q.To != "IDR" {
		t.Errorf("unexpected quote %+v", q)
	}
	if _, err := c.Rate(context.Background(), "USD", "IDR"); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected cached second lookup, got %d calls", got)
	}
}

func TestHTTPConverter_SameCurrency(t *testing.T) {
	c := NewHTTPConverter("http://unused.invalid", testClient(), time.Hour)
	q, err := c.Rate(context.Background(), "USD", "USD")
	if err != nil || q.Rate != 1 {
		t.Errorf("expected identity rate, got %+v, %v", q, err)
	}
}

func TestHTTPConverter_MissingRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":"success","rates":{"EUR":0.92}}`)
	}))
	defer srv.Close()

	c := NewHTTPConverter(srv.URL, testClient(), time.Hour)
	if _, err := c.Rate(context.Background(), "USD", "IDR"); err == nil {
		t.Error("expected error for missing rate")
	}
}

type failing struct{}

func (failing) Rate(context.Context, string, string) (Quote, error) {
	return Quote{}, errors.New("upstream down")
}

func TestFallbackConverter_Policy(t *testing.T) {
	rates := map[string]float64{"USD/IDR": 16000}
	ctx := context.Background()

	m := metrics.New()
	allowed := NewFallbackConverter(failing{}, FallbackPolicy{Allow: true, Rates: rates}, m)
	q, err := allowed.Rate(ctx, "USD", "IDR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Rate != 16000 || q.Source != SourceFallback {
		t.Errorf("unexpected fallback quote %+v", q)
	}

	denied := NewFallbackConverter(failing{}, FallbackPolicy{Allow: false, Rates: rates}, nil)
	if _, err := denied.Rate(ctx, "USD", "IDR"); !errors.Is(err, apperr.ErrDataUnavailable) {
		t.Errorf("expected DataUnavailable when fallback disallowed, got %v", err)
	}

	undeclared := NewFallbackConverter(failing{}, FallbackPolicy{Allow: true, Rates: rates}, nil)
	if _, err := undeclared.Rate(ctx, "USD", "EUR"); !errors.Is(err, apperr.ErrDataUnavailable) {
		t.Errorf("expected DataUnavailable for undeclared pair, got %v", err)
	}
}

func TestFallbackConverter_PassesLiveThrough(t *testing.T) {
	live := Static{"USD/IDR": 15500}
	c := NewFallbackConverter(live, FallbackPolicy{Allow: true, Rates: map[string]float64{"USD/IDR": 1}}, nil)
	q, err := c.Rate(context.Background(), "USD", "IDR")
	if err != nil || q.Rate != 15500 {
		t.Errorf("expected primary rate, got %+v, %v", q, err)
	}
}
