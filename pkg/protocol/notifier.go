package protocol

import (
	"context"

	"github.com/docket-io/docket/pkg/models"
)

// Notifier accepts notification payloads constructed by the core and
// performs delivery. Delivery transports are out of scope here.
type Notifier interface {
	Notify(ctx context.Context, notification models.NotificationRequest) error
}
