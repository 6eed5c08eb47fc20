package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/domain"
)

type countingIngestor struct{ runs atomic.Int32 }

func (c *countingIngestor) Run(context.Context) (domain.IngestReport, error) {
	c.runs.Add(1)
	return domain.IngestReport{}, nil
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(&countingIngestor{}, discardLogger(), "not a cron spec", time.Second)
	assert.Error(t, err)
}

func TestSchedulerFires(t *testing.T) {
	ing := &countingIngestor{}
	sched, err := NewScheduler(ing, discardLogger(), "@every 10ms", time.Second)
	require.NoError(t, err)

	sched.Start()
	defer sched.Stop()

	deadline := time.After(2 * time.Second)
	for ing.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduler never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
