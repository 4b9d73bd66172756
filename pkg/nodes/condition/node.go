// Package condition evaluates a comparison against execution state and
// labels the outgoing edge with the boolean result.
package condition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/models"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/protocol"
)

const (
	OperatorEquals      = "equals"
	OperatorNotEquals   = "not_equals"
	OperatorContains    = "contains"
	OperatorGreaterThan = "greater_than"
	OperatorLessThan    = "less_than"
)

type Handler struct {
	field      string
	operator   string
	value      any
	expression string
}

func NewHandler(config map[string]any) (*Handler, error) {
	expression, _ := config["expression"].(string)
	field, _ := config["field"].(string)
	operator, _ := config["operator"].(string)

	if expression == "" && field == "" {
		return nil, errors.New("condition requires either 'field' or 'expression'")
	}

	return &Handler{
		field:      field,
		operator:   operator,
		value:      config["value"],
		expression: expression,
	}, nil
}

func (h *Handler) Execute(_ context.Context, execution *models.Execution, logger *slog.Logger) (*protocol.Result, error) {
	var (
		result bool
		err    error
	)

	if h.expression != "" {
		result, err = h.evaluateExpression(execution)
	} else {
		result, err = h.compare(execution)
	}

	if err != nil {
		return nil, err
	}

	logger.Debug("Condition evaluated", "field", h.field, "operator", h.operator, "result", result)

	return &protocol.Result{
		Data:     map[string]any{"conditionResult": result},
		Selector: strconv.FormatBool(result),
	}, nil
}

// compare evaluates `field op value` with numeric coercion for the ordering
// operators. A missing field compares as nil.
func (h *Handler) compare(execution *models.Execution) (bool, error) {
	actual, _ := execution.StateValue(h.field)

	switch h.operator {
	case OperatorEquals, "":
		return models.Stringify(actual) == models.Stringify(h.value), nil
	case OperatorNotEquals:
		return models.Stringify(actual) != models.Stringify(h.value), nil
	case OperatorContains:
		return strings.Contains(models.Stringify(actual), models.Stringify(h.value)), nil
	case OperatorGreaterThan, OperatorLessThan:
		left, leftOK := models.ToFloat(actual)
		right, rightOK := models.ToFloat(h.value)

		if !leftOK || !rightOK {
			return false, nil
		}

		if h.operator == OperatorGreaterThan {
			return left > right, nil
		}

		return left < right, nil
	default:
		return false, fmt.Errorf("unsupported condition operator: %s", h.operator)
	}
}

// evaluateExpression runs an expr-lang expression with the execution state
// and trigger data in scope.
func (h *Handler) evaluateExpression(execution *models.Execution) (bool, error) {
	trigger, _ := execution.State[models.StateTriggerDataKey].(map[string]any)

	env := map[string]any{
		"state":   execution.State,
		"trigger": trigger,
	}

	program, err := expr.Compile(h.expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("failed to compile condition expression: %w", err)
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate condition expression: %w", err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition expression returned %T, want bool", output)
	}

	return result, nil
}

type HandlerFactory struct{}

func NewHandlerFactory() *HandlerFactory { return &HandlerFactory{} }

func (*HandlerFactory) ID() string   { return models.NodeTypeCondition }
func (*HandlerFactory) Name() string { return "Condition" }

func (*HandlerFactory) Create(config map[string]any) (protocol.NodeHandler, error) {
	return NewHandler(config)
}

func (*HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"field": map[string]any{
				"type":        "string",
				"description": "State key to compare, resolved against execution state then trigger data.",
			},
			"operator": map[string]any{
				"type":    "string",
				"enum":    []string{OperatorEquals, OperatorNotEquals, OperatorContains, OperatorGreaterThan, OperatorLessThan},
				"default": OperatorEquals,
			},
			"value": map[string]any{
				"description": "Literal to compare against.",
			},
			"expression": map[string]any{
				"type":        "string",
				"description": "Alternative expr-lang expression with 'state' and 'trigger' in scope.",
				"examples":    []string{`trigger.amount_cents > 10000`, `state.conditionResult == true`},
			},
		},
	}
}
