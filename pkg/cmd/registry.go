// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"log/slog"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/ai"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/messaging"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/nodes/aiagent"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/nodes/apicall"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/nodes/calendar"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/nodes/checkout"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/nodes/condition"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/nodes/crm"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/nodes/delay"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/nodes/message"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/nodes/webhook"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/registry"
)

// NewRegistry wires every native node handler factory with its collaborators.
func NewRegistry(logger *slog.Logger, p persistence.Persistence) *registry.Registry {
	reg := registry.NewRegistry(logger)

	channel := messaging.NewWhatsAppChannel()
	provider := ai.NewOpenAIProvider()

	reg.Register(message.NewHandlerFactory(p.OwnerSettingsRepository(), channel))
	reg.Register(delay.NewHandlerFactory())
	reg.Register(condition.NewHandlerFactory())
	reg.Register(crm.NewHandlerFactory(p.LeadRepository()))
	reg.Register(calendar.NewHandlerFactory(p.ServiceRepository(), p.AppointmentRepository()))
	reg.Register(checkout.NewHandlerFactory(p.ServiceRepository(), p.OwnerSettingsRepository()))
	reg.Register(apicall.NewHandlerFactory())
	reg.Register(webhook.NewHandlerFactory())
	reg.Register(aiagent.NewHandlerFactory(provider, p.OwnerSettingsRepository()))

	return reg
}
