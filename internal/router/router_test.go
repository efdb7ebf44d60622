package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/handler"
	applog "github.com/habitlog/internal/log"
	"gorm.io/gorm/logger"
)

func setupTestRouter(t *testing.T, cfg config.AppConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open("file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared", logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	api := handler.NewAPI(gdb, time.UTC).WithClock(func() time.Time {
		return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	})
	return SetupRouter(api, applog.Discard(), cfg)
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	r := setupTestRouter(t, config.AppConfig{WriteRatePerMinute: 120, WriteRateBurst: 30})

	rr := doJSON(t, r, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestRouterFineFlow(t *testing.T) {
	r := setupTestRouter(t, config.AppConfig{WriteRatePerMinute: 600, WriteRateBurst: 50})

	rr := doJSON(t, r, http.MethodPost, "/api/habits", map[string]any{
		"name":            "Smoking",
		"tracking_values": []string{"Yes", "No"},
		"frequency_conditions": []map[string]any{
			{"tracking_value": "Yes", "frequency": "weekly", "count": 2},
		},
		"fine_amount": 50,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Habit struct {
			ID uint `json:"id"`
		} `json:"habit"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode habit: %v", err)
	}

	for _, d := range []string{"2025-01-06", "2025-01-08", "2025-01-10"} {
		path := "/api/habits/" + itoa(created.Habit.ID) + "/days/" + d + "/value"
		if rr := doJSON(t, r, http.MethodPut, path, map[string]any{"value": "Yes"}); rr.Code != http.StatusOK {
			t.Fatalf("set value %s: expected 200, got %d: %s", d, rr.Code, rr.Body.String())
		}
	}

	rr = doJSON(t, r, http.MethodGet, "/api/fines?year=2025", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var fines struct {
		Fines []struct {
			ID          string `json:"id"`
			PeriodKey   string `json:"period_key"`
			ActualCount int    `json:"actual_count"`
			Status      string `json:"status"`
		} `json:"fines"`
		UnpaidAmount int `json:"unpaid_amount"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &fines); err != nil {
		t.Fatalf("decode fines: %v", err)
	}
	if len(fines.Fines) != 1 || fines.Fines[0].PeriodKey != "2025-W02" || fines.UnpaidAmount != 50 {
		t.Fatalf("unexpected fines: %+v", fines)
	}

	rr = doJSON(t, r, http.MethodPut, "/api/fines/"+fines.Fines[0].ID+"/status", map[string]any{"status": "paid"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, r, http.MethodPut, "/api/fines/"+fines.Fines[0].ID+"/status", map[string]any{"status": "waived"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for invalid status, got %d", rr.Code)
	}
}

func TestRouterRateLimitsWrites(t *testing.T) {
	r := setupTestRouter(t, config.AppConfig{WriteRatePerMinute: 1, WriteRateBurst: 1})

	payload := map[string]any{"mood": 3, "content": "hi"}
	if rr := doJSON(t, r, http.MethodPut, "/api/journal/2025-03-01", payload); rr.Code != http.StatusOK {
		t.Fatalf("expected first write to succeed, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr := doJSON(t, r, http.MethodPut, "/api/journal/2025-03-01", payload); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}

	// 读请求不受限
	if rr := doJSON(t, r, http.MethodGet, "/api/journal/2025-03-01", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected read to succeed, got %d", rr.Code)
	}
}

func TestWriteLimiterForgetsIdleVisitors(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	l := newWriteLimiter(1, 1)
	l.now = func() time.Time { return now }

	if !l.allow("a") || l.allow("a") {
		t.Fatal("expected burst of one")
	}
	now = now.Add(limiterIdleTTL + time.Second)
	if !l.allow("b") {
		t.Fatal("expected new visitor to pass")
	}
	if _, ok := l.visitors["a"]; ok {
		t.Fatal("expected idle visitor to be removed")
	}
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
