package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mrusso19/covid-data-aggregation/internal/covid"
)

const latestJSON = `[
  {"data": "2025-01-08T17:00:00", "codice_regione": 13, "denominazione_regione": "Abruzzo", "denominazione_provincia": "L'Aquila", "totale_casi": 100},
  {"data": "2025-01-08T17:00:00", "codice_regione": 12, "denominazione_regione": "Lazio", "denominazione_provincia": "Roma", "totale_casi": 300}
]`

const datedCSV = `data,codice_regione,denominazione_regione,denominazione_provincia,totale_casi
2020-03-15T17:00:00,09,Toscana,Firenze,25
2020-03-15T17:00:00,12,Lazio,Roma,300
`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), srv.URL, srv.URL), srv
}

func TestFetchLatest_DecodesJSON(t *testing.T) {
	var gotPath, gotUA string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(latestJSON))
	})

	records, err := client.FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/dpc-covid19-ita-province-latest.json" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotUA == "" || gotUA == "Go-http-client/1.1" {
		t.Errorf("browser User-Agent not sent, got %q", gotUA)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	// JSON numbers arrive as float64 and stay that way until normalization.
	if code, ok := records[0]["codice_regione"].(float64); !ok || code != 13 {
		t.Errorf("codice_regione = %v (%T), want float64 13", records[0]["codice_regione"], records[0]["codice_regione"])
	}
}

func TestFetchByDate_DecodesCSV(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(datedCSV))
	})

	records, err := client.FetchByDate(context.Background(), time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/dpc-covid19-ita-province-20200315.csv" {
		t.Errorf("request path = %q", gotPath)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0]["codice_regione"] != "09" {
		t.Errorf("codice_regione = %v, want zero-padded string %q", records[0]["codice_regione"], "09")
	}
	if records[1]["totale_casi"] != "300" {
		t.Errorf("totale_casi = %v, want %q", records[1]["totale_casi"], "300")
	}
}

func TestFetchByDate_ShortRowLeavesFieldAbsent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data,codice_regione,denominazione_regione,totale_casi\n2020-03-15T17:00:00,12,Lazio\n"))
	})

	records, err := client.FetchByDate(context.Background(), time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if _, present := records[0]["totale_casi"]; present {
		t.Error("truncated trailing field must be absent, not empty")
	}
}

func TestFetch_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.FetchByDate(context.Background(), time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, covid.ErrSourceNotFound) {
		t.Fatalf("err = %v, want ErrSourceNotFound", err)
	}
}

func TestFetch_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchLatest(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if errors.Is(err, covid.ErrSourceNotFound) {
		t.Fatalf("a 500 must not classify as not-found: %v", err)
	}
}

func TestFetchLatest_MalformedJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"`))
	})

	if _, err := client.FetchLatest(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

// Repeated 5xx responses open the breaker; subsequent calls fail fast
// without reaching the server.
func TestFetch_CircuitOpensOnRepeatedServerErrors(t *testing.T) {
	var hits int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 10; i++ {
		_, _ = client.FetchLatest(context.Background())
	}

	hitsBefore := hits
	_, err := client.FetchLatest(context.Background())
	if err == nil {
		t.Fatal("expected error while breaker is open")
	}
	if !errors.Is(err, errCircuitOpen) {
		t.Fatalf("err = %v, want circuit-open", err)
	}
	if hits != hitsBefore {
		t.Errorf("open breaker still reached the server (%d -> %d hits)", hitsBefore, hits)
	}
}
