package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestFetchNormalizesCells(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method: %s", r.Method)
		}
		io.WriteString(w, `{"data":[["Date","Type"],["2025-01-10","revenu","1","Salaire",2000,"Compte A",null,"Janvier"]]}`)
	}))
	defer srv.Close()

	grid, err := New(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(grid) != 2 {
		t.Fatalf("rows: %d", len(grid))
	}
	want := []string{"2025-01-10", "revenu", "1", "Salaire", "2000", "Compte A", "", "Janvier"}
	if !reflect.DeepEqual(grid[1], want) {
		t.Fatalf("row: %v", grid[1])
	}
}

func TestFetchSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Fetch(context.Background()); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestFetchRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": "pas une grille"}`)
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Fetch(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestAppendPostsSingleRowGrid(t *testing.T) {
	var got [][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	cells := []string{"2025-01-10", "revenu", "1", "Salaire", "2000", "Compte A", "", "Janvier"}
	if err := New(srv.URL).Append(context.Background(), cells); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(got) != 1 || !reflect.DeepEqual(got[0], cells) {
		t.Fatalf("posted body: %v", got)
	}
}

func TestAppendSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if err := New(srv.URL).Append(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error on 403")
	}
}
