package staging

import (
	"context"
	"time"

	"github.com/pmcgroup/istock-backend/internal/logging"
	"github.com/pmcgroup/istock-backend/internal/models"
)

const (
	drainInterval = time.Minute
	drainBatch    = 50
	// Rows past this many attempts are parked as failed and need operator
	// attention; retrying them forever would just hammer the ERP.
	maxAttempts = 10
)

// Drainer retries pending outbox rows in the background so that lines whose
// push failed during the bridge call still reach the ERP eventually.
type Drainer struct {
	bridge *Bridge
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDrainer(bridge *Bridge) *Drainer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Drainer{
		bridge: bridge,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start launches the drain loop.
func (d *Drainer) Start() {
	go d.run()
}

// Stop cancels the drainer's context, aborting any in-flight push (the
// staging timeout is far too large to wait out), and waits for the loop to
// exit. Aborted rows stay pending and are retried on the next start.
func (d *Drainer) Stop() {
	d.cancel()
	<-d.done
}

func (d *Drainer) run() {
	defer close(d.done)

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.drainPending()
		case <-d.ctx.Done():
			return
		}
	}
}

// drainPending pushes a batch of pending rows, oldest first. Rows that keep
// failing are parked as failed once they exhaust their attempts.
func (d *Drainer) drainPending() {
	log := logging.GetLogger()

	var rows []models.StagingOutbox
	err := d.bridge.db.
		Where("status = ?", models.OutboxPending).
		Order("id ASC").
		Limit(drainBatch).
		Find(&rows).Error
	if err != nil {
		log.Warnf("outbox drain: load pending rows: %v", err)
		return
	}
	if len(rows) == 0 {
		return
	}

	sent := 0
	for i := range rows {
		if d.ctx.Err() != nil {
			return
		}
		if d.bridge.drainRow(d.ctx, &rows[i]) {
			sent++
			continue
		}
		if rows[i].Attempts+1 >= maxAttempts {
			d.bridge.db.Model(&rows[i]).Update("status", models.OutboxFailed)
			log.Warnf("outbox drain: row %d (%s/%s) parked after %d attempts",
				rows[i].ID, rows[i].DocNo, rows[i].LineUUID, rows[i].Attempts+1)
		}
	}
	log.Infof("outbox drain: %d/%d rows sent", sent, len(rows))
}
