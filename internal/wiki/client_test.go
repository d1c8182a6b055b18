package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func newAPIServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, "wiki-race-test", 5*time.Second)
}

func TestClientLinksFollowsContinue(t *testing.T) {
	calls := 0
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		q := r.URL.Query()
		if q.Get("prop") != "links" || q.Get("plnamespace") != "0" || q.Get("titles") != "Go" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "wiki-race-test" {
			t.Errorf("missing user agent")
		}
		w.Header().Set("Content-Type", "application/json")
		if q.Get("plcontinue") == "" {
			_, _ = w.Write([]byte(`{"continue":{"plcontinue":"1|0|B","continue":"||"},"query":{"pages":[{"title":"Go","links":[{"ns":0,"title":"A"},{"ns":14,"title":"Category:X"}]}]}}`))
			return
		}
		if q.Get("plcontinue") != "1|0|B" {
			t.Errorf("unexpected continue token %q", q.Get("plcontinue"))
		}
		_, _ = w.Write([]byte(`{"query":{"pages":[{"title":"Go","links":[{"ns":0,"title":"B"}]}]}}`))
	})

	links, err := client.Links(context.Background(), "Go", Forward)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if !reflect.DeepEqual(links, []string{"A", "B"}) {
		t.Fatalf("unexpected links %v", links)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestClientLinksBackward(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("prop") != "linkshere" {
			t.Errorf("expected linkshere query, got %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"query":{"pages":[{"title":"Go","linkshere":[{"ns":0,"title":"Gopher"}]}]}}`))
	})
	links, err := client.Links(context.Background(), "Go", Backward)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if !reflect.DeepEqual(links, []string{"Gopher"}) {
		t.Fatalf("unexpected links %v", links)
	}
}

func TestClientLinksMissingPage(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"pages":[{"title":"Nope","missing":true}]}}`))
	})
	if _, err := client.Links(context.Background(), "Nope", Forward); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestClientRandomPage(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("list") != "random" || r.URL.Query().Get("rnnamespace") != "0" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"query":{"random":[{"id":7,"ns":0,"title":"Lighthouse"}]}}`))
	})
	title, err := client.RandomPage(context.Background())
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if title != "Lighthouse" {
		t.Fatalf("unexpected title %q", title)
	}
}

func TestClientPageExists(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("titles") == "Missing" {
			_, _ = w.Write([]byte(`{"query":{"pages":[{"title":"Missing","missing":true}]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"query":{"pages":[{"title":"London"}]}}`))
	})
	ok, err := client.PageExists(context.Background(), "London")
	if err != nil || !ok {
		t.Fatalf("expected London to exist, got %v %v", ok, err)
	}
	ok, err = client.PageExists(context.Background(), "Missing")
	if err != nil || ok {
		t.Fatalf("expected Missing to be absent, got %v %v", ok, err)
	}
}

func TestClientParse(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "Nope" {
			_, _ = w.Write([]byte(`{"error":{"code":"missingtitle","info":"The page you specified doesn't exist."}}`))
			return
		}
		_, _ = w.Write([]byte(`{"parse":{"title":"London","text":"<p>hi</p>","links":[{"ns":0,"title":"Thames","exists":true},{"ns":4,"title":"Wikipedia:About"}]}}`))
	})
	page, err := client.Parse(context.Background(), "London")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if page.Title != "London" || page.HTML != "<p>hi</p>" || !reflect.DeepEqual(page.Links, []string{"Thames"}) {
		t.Fatalf("unexpected page %#v", page)
	}
	if _, err := client.Parse(context.Background(), "Nope"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestClientStatusError(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})
	if _, err := client.RandomPage(context.Background()); err == nil {
		t.Fatalf("expected error on 429")
	}
}
