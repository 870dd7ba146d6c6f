package nav

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pmcgroup/istock-backend/internal/config"
)

func testConfig(userURL string) config.NAVConfig {
	return config.NAVConfig{
		UserURL:          userURL,
		Username:         "nav",
		Password:         "secret",
		TimeoutMS:        2000,
		StagingTimeoutMS: 2000,
		MaxRetry:         3,
		RetryBaseMS:      10,
	}
}

func TestFetchUsersRetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"value":[{"userName":"somchai"}]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	start := time.Now()
	users, err := client.FetchUsers(context.Background())
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	if len(users) != 1 || users[0]["userName"] != "somchai" {
		t.Fatalf("unexpected users: %v", users)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	// Two waits with base 10ms: 10ms + 20ms lower bound.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("backoff too short: %s", elapsed)
	}
}

func TestFetchUsersExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if _, err := client.FetchUsers(context.Background()); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestFetchUsersZeroRetryBudgetStillAttemptsOnce(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetry = 0
	client := NewClient(cfg)
	if _, err := client.FetchUsers(context.Background()); err == nil {
		t.Fatal("failed fetch must surface an error, not nil")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", got)
	}

	cfg.MaxRetry = -5
	atomic.StoreInt32(&calls, 0)
	client = NewClient(cfg)
	if _, err := client.FetchUsers(context.Background()); err == nil {
		t.Fatal("failed fetch must surface an error, not nil")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", got)
	}
}

func TestDecodeListNormalization(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"envelope", `{"value":[{"a":1},{"b":2}]}`, 2},
		{"bare array", `[{"a":1}]`, 1},
		{"empty envelope", `{"value":[]}`, 0},
		{"empty body", ``, 0},
		{"garbage", `not json`, 0},
	}
	for _, c := range cases {
		records, _ := decodeList([]byte(c.body))
		if records == nil {
			t.Errorf("%s: records must never be nil", c.name)
			continue
		}
		if len(records) != c.want {
			t.Errorf("%s: got %d records, want %d", c.name, len(records), c.want)
		}
	}
}

func TestFetchUsersSendsBasicAuth(t *testing.T) {
	var header string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Authorization")
		w.Write([]byte(`{"value":[]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if _, err := client.FetchUsers(context.Background()); err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	// nav:secret base64
	if header != "Basic bmF2OnNlY3JldA==" {
		t.Errorf("unexpected auth header %q", header)
	}
}

func TestPushStagingRecordSwallowsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	cfg := testConfig("")
	cfg.StagingURL = server.URL
	client := NewClient(cfg)

	if client.PushStagingRecord(context.Background(), map[string]any{"docNo": "MT-1"}) {
		t.Error("rejected push must report false")
	}

	server.Close()
	if client.PushStagingRecord(context.Background(), map[string]any{"docNo": "MT-1"}) {
		t.Error("transport failure must report false, not panic or error")
	}

	cfg.StagingURL = ""
	unconfigured := NewClient(cfg)
	if unconfigured.PushStagingRecord(context.Background(), map[string]any{}) {
		t.Error("unconfigured staging URL must report false")
	}
}

func TestPushStagingRecordSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	cfg := testConfig("")
	cfg.StagingURL = server.URL
	client := NewClient(cfg)
	if !client.PushStagingRecord(context.Background(), map[string]any{"docNo": "MT-1"}) {
		t.Error("accepted push must report true")
	}
}
