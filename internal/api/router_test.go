package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/profileviewer-go/internal/config"
	"github.com/jengzang/profileviewer-go/internal/models"
	"github.com/jengzang/profileviewer-go/internal/service"
	"github.com/jengzang/profileviewer-go/internal/source"
)

type stubSource map[string][]models.RawCheckin

func (s stubSource) Fetch(ctx context.Context, subject string) ([]models.RawCheckin, error) {
	raw, ok := s[subject]
	if !ok {
		return nil, &source.FetchError{Source: "stub", Subject: subject, Err: errors.New("connection refused")}
	}
	return raw, nil
}

func place(id, name, cate, zcate string) *models.RawPlace {
	return &models.RawPlace{
		ID: models.FlexibleID(id), Name: name, Lat: 41.88, Lng: -87.63,
		Category: models.RawCategory{ID: models.FlexibleID("c-" + cate), Name: cate, ZCategory: zcate},
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	src := stubSource{
		"alice": {
			{CreatedAt: "2013-03-04T12:00:00Z", Place: place("1", "A", "Food", "Food & Dining")},
			{CreatedAt: "2013-03-11T12:00:00Z", Place: place("1", "A", "Food", "Food & Dining")},
			{CreatedAt: "2013-03-12T12:00:00Z", Place: place("2", "B", "Shop", "Shops")},
		},
		"broken": {
			{CreatedAt: "2013-03-04T12:00:00Z"},
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{RateLimit: 1000}
	svc := service.NewDashboardService(src, service.NewTokenIssuer("secret", time.Hour), service.DashboardOptions{})
	return SetupRouter(ctx, cfg, svc)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, r http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid body %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func open(t *testing.T, r http.Handler, subject string) string {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/api/v1/sessions", `{"subject":"`+subject+`"}`)
	if code != http.StatusCreated {
		t.Fatalf("open %s: status %d %s", subject, code, env.Message)
	}
	var info models.SessionInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		t.Fatal(err)
	}
	return info.Token
}

type viewRow struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type viewBody struct {
	View    string    `json:"view"`
	Focused bool      `json:"focused"`
	Rows    []viewRow `json:"rows"`
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestSessionLifecycle(t *testing.T) {
	r := newTestRouter(t)
	token := open(t, r, "alice")
	base := "/api/v1/sessions/" + token

	code, env := do(t, r, http.MethodPost, base+"/focus", `{"topic":"B","view":"p"}`)
	if code != http.StatusOK {
		t.Fatalf("focus: %d %s", code, env.Message)
	}
	var views []viewBody
	if err := json.Unmarshal(env.Data, &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 5 || views[0].View != "p" || !views[0].Focused {
		t.Fatalf("unexpected views %+v", views)
	}
	// category sees the POI filter
	if cate := views[1].Rows; len(cate) != 2 || cate[0] != (viewRow{"Food", 0}) || cate[1] != (viewRow{"Shop", 1}) {
		t.Errorf("unexpected category rows %+v", cate)
	}

	code, env = do(t, r, http.MethodGet, base+"/markers", "")
	if code != http.StatusOK || !strings.Contains(string(env.Data), `"placeId":"2"`) || strings.Contains(string(env.Data), `"placeId":"1"`) {
		t.Errorf("expected only B on the map, got %d %s", code, env.Data)
	}

	code, env = do(t, r, http.MethodPost, base+"/unfocus", "")
	if code != http.StatusOK {
		t.Fatalf("unfocus: %d %s", code, env.Message)
	}

	code, env = do(t, r, http.MethodGet, base+"/views/p?cap=1", "")
	if code != http.StatusOK {
		t.Fatalf("view: %d %s", code, env.Message)
	}
	var poi struct {
		viewBody
		Others int `json:"others"`
	}
	if err := json.Unmarshal(env.Data, &poi); err != nil {
		t.Fatal(err)
	}
	if len(poi.Rows) != 1 || poi.Rows[0] != (viewRow{"1", 2}) || poi.Others != 1 {
		t.Errorf("unexpected capped view %+v", poi)
	}

	code, env = do(t, r, http.MethodGet, base+"/summary", "")
	if code != http.StatusOK || !strings.Contains(string(env.Data), `"checkins":3`) {
		t.Errorf("unexpected summary %d %s", code, env.Data)
	}

	if code, _ = do(t, r, http.MethodDelete, base, ""); code != http.StatusOK {
		t.Errorf("close: %d", code)
	}
	if code, _ = do(t, r, http.MethodGet, base+"/views", ""); code != http.StatusNotFound {
		t.Errorf("expected closed session to be 404, got %d", code)
	}
}

func TestErrorStatuses(t *testing.T) {
	r := newTestRouter(t)
	token := open(t, r, "alice")
	base := "/api/v1/sessions/" + token

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unreachable source", http.MethodPost, "/api/v1/sessions", `{"subject":"nobody"}`, http.StatusBadGateway},
		{"malformed record", http.MethodPost, "/api/v1/sessions", `{"subject":"broken"}`, http.StatusUnprocessableEntity},
		{"missing subject", http.MethodPost, "/api/v1/sessions", `{}`, http.StatusBadRequest},
		{"bad token", http.MethodGet, "/api/v1/sessions/not-a-token/views", "", http.StatusNotFound},
		{"unknown view", http.MethodGet, base + "/views/x", "", http.StatusNotFound},
		{"unknown poi", http.MethodPost, base + "/focus", `{"topic":"Nowhere","view":"p"}`, http.StatusNotFound},
		{"bad timeline topic", http.MethodPost, base + "/focus", `{"topic":"someday","view":"t"}`, http.StatusBadRequest},
		{"bad timeline key", http.MethodPost, base + "/filter", `{"view":"t","keys":["someday"]}`, http.StatusBadRequest},
		{"bad cap", http.MethodGet, base + "/views?cap=many", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, env := do(t, r, tc.method, tc.path, tc.body)
			if code != tc.want {
				t.Errorf("expected %d, got %d (%s)", tc.want, code, env.Message)
			}
			if env.Code != tc.want {
				t.Errorf("expected envelope code %d, got %d", tc.want, env.Code)
			}
		})
	}
}

func TestEventsStream(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	token := open(t, r, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/sessions/"+token+"/events", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("unexpected content type %q", ct)
	}

	events := 0
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() && events < 5 {
		if sc.Text() == "event:view" {
			events++
		}
	}
	if events != 5 {
		t.Errorf("expected one primed event per view, got %d", events)
	}
}
