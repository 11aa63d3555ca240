package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/mohitkumar/flower/model"
	"github.com/oliveagle/jsonpath"
)

// cases maps the value an expression evaluates to onto comma separated
// target services. Without cases the value itself names the targets.
type cases map[string]string

func (cs cases) targets(value string) string {
	if len(cs) == 0 {
		return value
	}
	if t, ok := cs[value]; ok {
		return t
	}
	return cs["default"]
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, stringify(p))
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprintf("%v", value)
}

// JsonPathSwitch routes its input by the value found at a jsonpath.
type JsonPathSwitch struct {
	path  string
	cases cases
}

func NewJsonPathSwitch(expression string, cs map[string]string) (*JsonPathSwitch, error) {
	path := strings.TrimSuffix(strings.TrimPrefix(expression, "{"), "}")
	if len(path) == 0 {
		return nil, fmt.Errorf("expression can not be empty")
	}
	if _, err := jsonpath.Compile(path); err != nil {
		return nil, fmt.Errorf("expression should be a valid jsonpath expression: %w", err)
	}
	return &JsonPathSwitch{path: path, cases: cs}, nil
}

func (s *JsonPathSwitch) Process(param any, ctx *model.ServiceContext) (any, error) {
	data, _ := param.(map[string]any)
	value, err := jsonpath.JsonPathLookup(data, s.path)
	if err != nil {
		value = nil
	}
	return model.Branch{Targets: s.cases.targets(stringify(value)), Data: data}, nil
}

// ExprSwitch routes its input by the result of an expr-lang expression
// evaluated with the input as environment.
type ExprSwitch struct {
	program *vm.Program
	cases   cases
}

func NewExprSwitch(expression string, cs map[string]string) (*ExprSwitch, error) {
	if len(expression) == 0 {
		return nil, fmt.Errorf("expression can not be empty")
	}
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	return &ExprSwitch{program: program, cases: cs}, nil
}

func (s *ExprSwitch) Process(param any, ctx *model.ServiceContext) (any, error) {
	data, _ := param.(map[string]any)
	env := make(map[string]any, len(data))
	for k, v := range data {
		env[k] = v
	}
	value, err := expr.Run(s.program, env)
	if err != nil {
		return nil, err
	}
	return model.Branch{Targets: s.cases.targets(stringify(value)), Data: data}, nil
}
