package dashboard

import (
	"context"
	"time"

	"github.com/firefly-engineering/conduit-console/internal/health"
	"github.com/firefly-engineering/conduit-console/internal/monitor"
)

// Snapshot is the state shown by one refresh.
type Snapshot struct {
	Results []*health.CheckResult
	TakenAt time.Time
}

// Source produces snapshots for the dashboard.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// MonitorSource adapts a monitor to Source.
type MonitorSource struct {
	Monitor *monitor.Monitor
}

// Snapshot checks every conduit once.
func (s *MonitorSource) Snapshot(ctx context.Context) (Snapshot, error) {
	results, err := s.Monitor.CheckAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Results: results, TakenAt: time.Now()}, nil
}

// Controller performs the start and stop actions bound to dashboard keys.
type Controller interface {
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string, timeout time.Duration) error
}
