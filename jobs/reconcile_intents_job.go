package jobs

import (
	"time"

	"gorm.io/gorm"

	"github.com/njeri2090/studio_booking/models"
	"github.com/njeri2090/studio_booking/payments"
	"github.com/njeri2090/studio_booking/services"
	"github.com/njeri2090/studio_booking/utils"
)

// Jobs bundles the cron-driven maintenance tasks with their dependencies.
type Jobs struct {
	DB         *gorm.DB
	Processor  *payments.Client
	Reconciler *services.PaymentReconciler
}

func New(db *gorm.DB, processor *payments.Client, reconciler *services.PaymentReconciler) *Jobs {
	return &Jobs{DB: db, Processor: processor, Reconciler: reconciler}
}

const staleIntentAge = 30 * time.Minute

// ReconcilePendingIntents sweeps payment rows stuck in pending and asks the
// processor what actually happened to them. A webhook that was lost or never
// delivered gets settled here through the same reconciler the webhook
// endpoint uses.
func (j *Jobs) ReconcilePendingIntents() {
	cutoff := time.Now().Add(-staleIntentAge)

	var stale []models.Payment
	if err := j.DB.
		Where("status = ? AND intent_id IS NOT NULL AND updated_at < ?", models.PaymentPending, cutoff).
		Limit(100).
		Find(&stale).Error; err != nil {
		utils.ErrorLogger.Errorf("pending-intent sweep query failed: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	utils.InfoLogger.Infof("reconciling %d stale pending intents", len(stale))

	for _, payment := range stale {
		intent, err := j.Processor.GetIntent(*payment.IntentID)
		if err != nil {
			utils.ErrorLogger.Errorf("failed to look up intent %s: %v", *payment.IntentID, err)
			continue
		}

		switch intent.Status {
		case "succeeded":
			if err := j.Reconciler.ApplyIntentSucceeded(intent.ID, intent.LatestCharge); err != nil {
				utils.ErrorLogger.Errorf("failed to settle recovered intent %s: %v", intent.ID, err)
			}
		case "canceled":
			// Status-guarded so a concurrent webhook cannot be overwritten.
			if err := j.DB.Model(&models.Payment{}).
				Where("id = ? AND status = ?", payment.ID, models.PaymentPending).
				Update("status", models.PaymentCancelled).Error; err != nil {
				utils.ErrorLogger.Errorf("failed to mark intent %s cancelled: %v", intent.ID, err)
			}
		default:
			// Still in flight on the processor side, leave it alone.
		}
	}
}
