package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jengzang/profileviewer-go/internal/database"
	"github.com/jengzang/profileviewer-go/internal/models"
	"github.com/jengzang/profileviewer-go/internal/repository"
)

const checkinJSON = `{"created_at":"2013-03-04T12:00:00Z","place":{"id":%d,"name":"P%d","lat":41.9,"lng":-87.6,"category":{"id":"c1","name":"Food","zcategory":"Food & Dining"}}}`

func TestHTTPSourcePlainArray(t *testing.T) {
	var gotParam string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotParam = r.URL.Query().Get(ParamScreenName)
		fmt.Fprintf(w, "["+checkinJSON+","+checkinJSON+"]", 1, 1, 2, 2)
	}))
	defer srv.Close()

	src := &HTTPSource{BaseURL: srv.URL + "/checkins", Param: ParamScreenName, Client: srv.Client()}
	raw, err := src.Fetch(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotParam != "alice" {
		t.Errorf("expected screen_name=alice, got %q", gotParam)
	}
	if len(raw) != 2 || raw[1].Place == nil || raw[1].Place.ID != "2" {
		t.Fatalf("unexpected records %+v", raw)
	}
}

func TestPaginateFollowsNext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprintf(w, `{"data":[`+checkinJSON+`],"more":true,"next":"?page=2"}`, 1, 1)
		case "2":
			fmt.Fprintf(w, `{"data":[`+checkinJSON+`,`+checkinJSON+`],"more":true,"next":"/checkins?page=3"}`, 2, 2, 3, 3)
		case "3":
			fmt.Fprintf(w, `{"data":[`+checkinJSON+`],"more":false,"next":"?page=4"}`, 4, 4)
		default:
			t.Errorf("unexpected request %s", r.URL)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var calls [][2]int
	progress := func(pages, records int) { calls = append(calls, [2]int{pages, records}) }

	raw, err := Paginate[models.RawCheckin](context.Background(), srv.Client(), srv.URL+"/checkins", progress)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(raw) != 4 {
		t.Fatalf("expected 4 records, got %d", len(raw))
	}
	for i, r := range raw {
		if want := models.FlexibleID(fmt.Sprint(i + 1)); r.Place.ID != want {
			t.Errorf("record %d: expected id %s, got %s", i, want, r.Place.ID)
		}
	}
	want := [][2]int{{1, 1}, {2, 3}, {3, 4}}
	if fmt.Sprint(calls) != fmt.Sprint(want) {
		t.Errorf("expected progress %v, got %v", want, calls)
	}
}

func TestPaginateLoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[],"more":true,"next":"/same"}`)
	}))
	defer srv.Close()

	if _, err := Paginate[models.RawCheckin](context.Background(), srv.Client(), srv.URL+"/same", nil); err == nil {
		t.Error("expected a pagination loop to fail")
	}
}

func TestHTTPSourceFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data": [`)
		},
		"failing second page": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "" {
				fmt.Fprintf(w, `{"data":[`+checkinJSON+`],"more":true,"next":"?page=2"}`, 1, 1)
				return
			}
			http.Error(w, "gone", http.StatusBadGateway)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			raw, err := NewHTTPSource(srv.URL, srv.Client()).Fetch(context.Background(), "alice")
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FetchError, got %v", err)
			}
			if fe.Subject != "alice" {
				t.Errorf("expected subject in error, got %q", fe.Subject)
			}
			if raw != nil {
				t.Errorf("expected no partial result, got %d records", len(raw))
			}
		})
	}
}

func TestHTTPSourceCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPSource(srv.URL, srv.Client()).Fetch(ctx, "alice")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSQLiteSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.db")
	conn, err := database.Open(database.Config{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err := database.NewMigrationManager(conn, "").RunMigrations(); err != nil {
		t.Fatal(err)
	}

	repo := repository.NewCheckinRepository(conn)
	err = repo.ReplaceSubject(context.Background(), "alice", []models.RawCheckin{
		{CreatedAt: "2013-03-04T12:00:00Z", Place: &models.RawPlace{ID: "1", Name: "A"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	src := NewSQLiteSource(path, repo)
	raw, err := src.Fetch(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(raw) != 1 || raw[0].Place.Name != "A" {
		t.Errorf("unexpected records %+v", raw)
	}

	conn.Close()
	var fe *FetchError
	if _, err := src.Fetch(context.Background(), "alice"); !errors.As(err, &fe) {
		t.Errorf("expected FetchError on closed database, got %v", err)
	}
}
