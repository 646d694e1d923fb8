package scheduler

import (
	"github.com/hibiken/asynq"
)

const TaskReviewOrphanSweep = "reviews.orphan_sweep"

const TaskProviderTrialExpiry = "providers.trial_expiry"

const TaskProviderSubscriptionExpiry = "providers.subscription_expiry"

func NewReviewOrphanSweepTask() *asynq.Task {
	return asynq.NewTask(TaskReviewOrphanSweep, nil)
}

func NewProviderTrialExpiryTask() *asynq.Task {
	return asynq.NewTask(TaskProviderTrialExpiry, nil)
}

func NewProviderSubscriptionExpiryTask() *asynq.Task {
	return asynq.NewTask(TaskProviderSubscriptionExpiry, nil)
}
