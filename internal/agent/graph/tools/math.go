package tools

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/finsight-agent/server/internal/agent/model"
	"github.com/finsight-agent/server/internal/agent/schema"
)

// ToolEvaluateExpression is the unique name of the expression tool.
const ToolEvaluateExpression = "math_evaluate_expression"

// EvaluationError reports a malformed or failing expression.
type EvaluationError struct {
	Expression string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("failed to evaluate expression %q: %v", e.Expression, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// EvaluateExpressionTool evaluates arithmetic and algebraic expressions via
// an embedded expression evaluator.
type EvaluateExpressionTool struct {
	info model.ToolInfo
}

// NewEvaluateExpressionTool creates the math tool.
func NewEvaluateExpressionTool() *EvaluateExpressionTool {
	return &EvaluateExpressionTool{
		info: model.ToolInfo{
			Name: ToolEvaluateExpression,
			Desc: "Evaluates a mathematical expression, e.g. '2 + 2', '(1500 + 300) / 100', 'abs(-4)'.",
			Params: schema.Object("expression arguments",
				map[string]*schema.Schema{
					"expression": schema.String("Mathematical expression to evaluate as a string."),
				},
				"expression",
			),
		},
	}
}

func (t *EvaluateExpressionTool) Info() model.ToolInfo { return t.info }

// Invoke compiles and runs the expression with an empty environment.
func (t *EvaluateExpressionTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	if err := validateArgs(t.info, args); err != nil {
		return "", err
	}
	expression, _ := args["expression"].(string)

	program, err := expr.Compile(expression)
	if err != nil {
		return "", &EvaluationError{Expression: expression, Err: err}
	}
	result, err := expr.Run(program, map[string]any{})
	if err != nil {
		return "", &EvaluationError{Expression: expression, Err: err}
	}
	return fmt.Sprintf("%v", result), nil
}
