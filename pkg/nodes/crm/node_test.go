package crm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/log"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence/file"
)

func testExecution(trigger map[string]any) *models.Execution {
	return &models.Execution{
		ID:      "exec-1",
		OwnerID: "owner-1",
		State:   map[string]any{models.StateTriggerDataKey: trigger},
	}
}

func TestHandler_UpdatesLead(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	require.NoError(t, persistence.LeadRepository().Save(t.Context(), &models.Lead{
		ID:      "lead-1",
		OwnerID: "owner-1",
		Phone:   "5511999998888",
		Name:    "Maria",
		Stage:   "novo",
	}))

	factory := NewHandlerFactory(persistence.LeadRepository())

	handler, err := factory.Create(map[string]any{
		"stage": "contatado",
		"tag":   "veio de {name}",
		"note":  "primeiro contato",
	})
	require.NoError(t, err)

	result, err := handler.Execute(t.Context(), testExecution(map[string]any{
		"phone": "5511999998888",
		"name":  "Maria",
	}), log.WithModule("test"))
	require.NoError(t, err)

	assert.Equal(t, true, result.Data["crmUpdated"])
	assert.Equal(t, "lead-1", result.Data["leadId"])

	lead, err := persistence.LeadRepository().FindByPhone(t.Context(), "owner-1", "5511999998888")
	require.NoError(t, err)
	assert.Equal(t, "contatado", lead.Stage)
	assert.Contains(t, lead.Tags, "veio de Maria")
	assert.Contains(t, lead.Notes, "primeiro contato")
}

func TestHandler_NoLeadIsNoOp(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	factory := NewHandlerFactory(persistence.LeadRepository())

	handler, err := factory.Create(map[string]any{"tag": "contacted"})
	require.NoError(t, err)

	result, err := handler.Execute(t.Context(), testExecution(map[string]any{
		"phone": "5511000000000",
	}), log.WithModule("test"))
	require.NoError(t, err)

	assert.Equal(t, false, result.Data["crmUpdated"])
}

func TestHandler_NoPhoneIsNoOp(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	factory := NewHandlerFactory(persistence.LeadRepository())

	handler, err := factory.Create(map[string]any{"stage": "contatado"})
	require.NoError(t, err)

	result, err := handler.Execute(t.Context(), testExecution(map[string]any{}), log.WithModule("test"))
	require.NoError(t, err)

	assert.Equal(t, false, result.Data["crmUpdated"])
}

func TestFactory_RequiresAtLeastOneField(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	factory := NewHandlerFactory(persistence.LeadRepository())

	_, err := factory.Create(map[string]any{})
	require.Error(t, err)
}
