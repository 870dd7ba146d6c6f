package staging

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pmcgroup/istock-backend/internal/config"
	"github.com/pmcgroup/istock-backend/internal/models"
	"github.com/pmcgroup/istock-backend/internal/nav"
)

func TestStopAbortsInFlightPush(t *testing.T) {
	db := testDB(t)

	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server watches the connection; without this
		// it never notices the client cancelling and Close deadlocks.
		io.Copy(io.Discard, r.Body)
		close(started)
		// Hold the push open until the request is cancelled.
		<-r.Context().Done()
	}))
	defer server.Close()

	// The staging client keeps an effectively unbounded timeout, so only
	// cancellation can unblock the push.
	client := nav.NewClient(config.NAVConfig{
		StagingURL:       server.URL,
		Username:         "nav",
		Password:         "secret",
		TimeoutMS:        2000,
		StagingTimeoutMS: 600000,
		MaxRetry:         1,
		RetryBaseMS:      1,
	})
	bridge := NewBridge(db, client)

	payload, err := json.Marshal(map[string]any{"docNo": "MO-260901-6666"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	row := models.StagingOutbox{
		DocNo:    "MO-260901-6666",
		LineUUID: "22222222-2222-4222-8222-222222222222",
		Payload:  payload,
		Status:   models.OutboxPending,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed outbox row: %v", err)
	}

	d := NewDrainer(bridge)
	d.Start()

	drained := make(chan struct{})
	go func() {
		d.drainPending()
		close(drained)
	}()

	<-started
	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while a push was in flight")
	}
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight push was not aborted")
	}

	var after models.StagingOutbox
	if err := db.First(&after, row.ID).Error; err != nil {
		t.Fatalf("reload outbox row: %v", err)
	}
	if after.Status != models.OutboxPending {
		t.Errorf("aborted push must leave the row pending, got %q", after.Status)
	}
}
