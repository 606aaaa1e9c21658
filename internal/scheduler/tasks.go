package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskOnboardingStalledSweep = "onboarding.stalled.sweep"

// Sweep triggers.
const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
)

// sweepUniqueFor keeps a second sweep from queueing while one is pending.
const sweepUniqueFor = time.Hour

type OnboardingSweepPayload struct {
	Trigger string `json:"trigger"`
}

func NewOnboardingSweepTask(payload OnboardingSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOnboardingStalledSweep, data), nil
}

func ParseOnboardingSweepPayload(task *asynq.Task) (OnboardingSweepPayload, error) {
	var payload OnboardingSweepPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OnboardingSweepPayload{}, err
	}
	return payload, nil
}
