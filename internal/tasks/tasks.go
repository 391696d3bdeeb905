package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeStatsSnapshot = "license:stats:snapshot"
)

type StatsSnapshotPayload struct{}

func NewStatsSnapshotTask(opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(StatsSnapshotPayload{})
	if err != nil {
		return nil, err
	}

	uniqueOpt := asynq.Unique(1 * time.Minute)
	allOpts := append(opts, uniqueOpt)

	return asynq.NewTask(TypeStatsSnapshot, payloadBytes, allOpts...), nil
}
