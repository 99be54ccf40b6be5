package driver

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// progressMessage is the wire shape published to channel, mirroring
// redisbus.Event's flat JSON-envelope convention.
type progressMessage struct {
	RunID     string `json:"run_id"`
	ShardDone int    `json:"shard_done"`
	ShardTotal int   `json:"shard_total"`
}

// RedisProgress returns a Progress callback that publishes each update
// to channel on client, in addition to logging it, so a caller running
// many concurrent Transform calls across processes can observe
// aggregate progress (spec.md §4.8's "shard 0 additionally emits
// periodic progress messages"). runID identifies the transform the
// messages belong to, the way runtracker.Tracker stamps a run ID onto
// every strategy-run log line.
//
// A publish failure is logged and swallowed: progress reporting must
// never fail the transform it is reporting on.
func RedisProgress(ctx context.Context, client *redis.Client, channel, runID string, logger *zap.Logger) Progress {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	return func(shardDone, shardTotal int) {
		msg := progressMessage{RunID: runID, ShardDone: shardDone, ShardTotal: shardTotal}
		data, err := json.Marshal(msg)
		if err != nil {
			logger.Error("marshaling progress message", zap.Error(err))
			return
		}
		if err := client.Publish(ctx, channel, data).Err(); err != nil {
			logger.Warn("publishing progress message", zap.String("channel", channel), zap.Error(err))
			return
		}
		logger.Debug("published progress", zap.String("run_id", runID), zap.Int("shard_done", shardDone), zap.Int("shard_total", shardTotal))
	}
}
