// Package messaging abstracts the tenant's outbound messaging channel.
package messaging

import (
	"context"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
)

// Channel delivers one text message to one recipient identifier on behalf of
// a tenant. Implementations must be safe for concurrent use.
type Channel interface {
	Send(ctx context.Context, settings *models.OwnerSettings, to, text string) error
}
