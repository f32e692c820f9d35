package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jordigilh/verifyd/internal/metrics"
)

func TestNewTimer_RecordsElapsed(t *testing.T) {
	timer := metrics.NewTimer(metrics.VerifyRequestDuration.WithLabelValues("ALLOW"))
	time.Sleep(time.Millisecond)
	elapsed := timer.Stop()
	if elapsed <= 0 {
		t.Error("expected positive elapsed duration")
	}
}

func TestCollectors_NonEmpty(t *testing.T) {
	if len(metrics.Collectors()) == 0 {
		t.Error("expected at least one registered collector")
	}
}

func TestServer_StartAndStop(t *testing.T) {
	server := metrics.NewServer(0, logrus.New())
	server.StartAsync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
