// Link statistics export over the lumberjack v2 protocol
package beats

import (
	"dblink/internal/global"
	"dblink/internal/queue"
	"fmt"
	"time"

	lumberjack "github.com/elastic/go-lumber/client/v2"
)

// Creates new beats (lumberjack) output module. Returns nil nil if no endpoint.
func NewOutput(namespace []string, endpoint string, role string, queueSize int) (module *OutModule, err error) {
	if endpoint == "" {
		return
	}

	compression := lumberjack.CompressionLevel(3)
	timeout := lumberjack.Timeout(3 * time.Second)

	ljClient, err := lumberjack.SyncDial(endpoint, compression, timeout)
	if err != nil {
		err = fmt.Errorf("failed connection to beats server: %w", err)
		return
	}

	module, err = newOutput(namespace, ljClient, role, queueSize)
	if err != nil {
		ljClient.Close()
	}
	return
}

func newOutput(namespace []string, sink batchClient, role string, queueSize int) (module *OutModule, err error) {
	if queueSize < 2 {
		queueSize = global.DefaultQueueSize
	}
	namespace = append(append([]string(nil), namespace...), global.NSBeats)

	outbox, err := queue.New(namespace, queueSize, func(batch []interface{}) int { return len(batch) })
	if err != nil {
		err = fmt.Errorf("failed to create beats outbox: %w", err)
		return
	}

	module = &OutModule{
		Namespace: namespace,
		role:      role,
		sink:      sink,
		outbox:    outbox,
		wait:      global.DefaultQueueWait,
	}
	return
}
