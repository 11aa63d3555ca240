package service

import (
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
	"github.com/mohitkumar/flower/model"
)

// ScriptService transforms its input with javascript. The input is bound
// to `$` and whatever `$` holds after the script runs is the result.
type ScriptService struct {
	script string
}

func NewScriptService(script string) (*ScriptService, error) {
	if len(script) == 0 {
		return nil, fmt.Errorf("script can not be empty")
	}
	if _, err := goja.Compile("script", script, false); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &ScriptService{script: script}, nil
}

func (s *ScriptService) Process(param any, ctx *model.ServiceContext) (any, error) {
	data, err := json.Marshal(param)
	if err != nil {
		return nil, err
	}
	vm := goja.New()
	if _, err := vm.RunString(fmt.Sprintf("var $ = %s;\n%s", data, s.script)); err != nil {
		return nil, fmt.Errorf("error executing javascript %w", err)
	}
	val, err := vm.RunString("$")
	if err != nil {
		return nil, fmt.Errorf("error executing javascript %w", err)
	}
	res, err := json.Marshal(val.Export())
	if err != nil {
		return nil, err
	}
	var output map[string]any
	if err := json.Unmarshal(res, &output); err != nil {
		return nil, fmt.Errorf("script must leave an object in $: %w", err)
	}
	return output, nil
}
