package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/hotel-reservation-prediction/internal/config"
	"github.com/yungbote/hotel-reservation-prediction/internal/ml/gbm"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

func writeModel(t *testing.T) string {
	t.Helper()
	X := [][]float64{}
	y := []int{}
	for i := 0; i < 200; i++ {
		X = append(X, []float64{float64(i), float64(i % 4)})
		if i < 100 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	p := gbm.DefaultParams()
	p.NEstimators = 10
	m := gbm.New(p)
	m.Features = []string{"lead_time", "no_of_special_requests"}
	if err := m.Fit(context.Background(), X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := m.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ModelOutput = writeModel(t)
	cfg.Serving.Addr = "127.0.0.1:0"
	cfg.Serving.ShutdownTimeout = time.Second
	return cfg
}

func TestNewFailsWithoutModel(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.ModelOutput = filepath.Join(t.TempDir(), "missing.json")
	if _, err := New(context.Background(), cfg, logger.NewNop()); err == nil {
		t.Fatalf("expected fail-fast error for missing model")
	}
}

func TestAppServesForm(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v := url.Values{}
	for name, val := range map[string]string{
		"lead_time": "5", "no_of_special_request": "1", "avg_price_per_room": "90",
		"arrival_month": "6", "arrival_date": "12", "market_segment_type": "1",
		"no_of_week_nights": "2", "no_of_weekend_nights": "1", "type_of_meal_plan": "0",
		"room_type_reserved": "0",
	} {
		v.Set(name, val)
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `data-label="1"`) {
		t.Fatalf("POST /: status=%d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "hrp_model_info") {
		t.Fatalf("model info gauge missing from /metrics")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	cfg.Serving.Addr = ln.Addr().String()
	ln.Close()

	a, err := New(context.Background(), cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + cfg.Serving.Addr + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
