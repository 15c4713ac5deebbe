package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeInquiryNotify is the task type for new-inquiry notifications.
	TaskTypeInquiryNotify = "inquiry:notify"
	// TaskTypeAvailabilityAudit is the task type for the nightly integrity
	// audit over booked inventory.
	TaskTypeAvailabilityAudit = "inventory:audit"
)

// InquiryNotifyPayload describes the notification sent to the owner when a
// storefront inquiry arrives.
type InquiryNotifyPayload struct {
	To           string   `json:"to"`
	Reference    string   `json:"reference"`
	CustomerName string   `json:"customer_name"`
	Email        string   `json:"email"`
	Items        []string `json:"items,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
}

// NewInquiryNotifyTask constructs an Asynq task.
func NewInquiryNotifyTask(payload InquiryNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeInquiryNotify, data), nil
}

// HandleInquiryNotifyTask processes TaskTypeInquiryNotify tasks.
func HandleInquiryNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload InquiryNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: SMTP delivery lands here once the mail relay is set up.
	fmt.Printf("[jobs] inquiry %s from %s <%s> to %s: %s\n",
		payload.Reference, payload.CustomerName, payload.Email, payload.To,
		strings.Join(payload.Items, ", "))
	return nil
}

// AvailabilityAuditPayload tunes the integrity audit.
type AvailabilityAuditPayload struct {
	// HorizonDays bounds how far into the future booked ranges are checked.
	HorizonDays int `json:"horizon_days"`
}

// NewAvailabilityAuditTask constructs an Asynq task.
func NewAvailabilityAuditTask(payload AvailabilityAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAvailabilityAudit, data), nil
}
