package beats

import (
	"dblink/internal/queue"
	"sync/atomic"
	"time"
)

// Subset of the lumberjack sync client used for shipping batches
type batchClient interface {
	Send(data []interface{}) (int, error)
	Close() error
}

// Ships link statistics and metrics to a Logstash/Beats endpoint
type OutModule struct {
	Namespace []string
	role      string
	sink      batchClient
	outbox    *queue.Queue[[]interface{}]
	wait      time.Duration
	Metrics   MetricStorage
}

type MetricStorage struct {
	Queued     atomic.Uint64 // batches accepted for shipping
	Dropped    atomic.Uint64 // batches lost to a full outbox
	EventsSent atomic.Uint64
	SendErrors atomic.Uint64
}
