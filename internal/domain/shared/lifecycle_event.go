package shared

import (
	"time"

	"github.com/google/uuid"
)

// LifecycleEvent is published to Kafka on every installment state transition.
// Publishing is best effort: a broker failure is logged but never blocks or
// rolls back the transition itself.
type LifecycleEvent struct {
	InstallmentID uuid.UUID `json:"installment_id"`
	PaymentID     uuid.UUID `json:"payment_id"`
	FromStatus    PixStatus `json:"from_status"`
	ToStatus      PixStatus `json:"to_status"`
	TxID          string    `json:"txid,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
