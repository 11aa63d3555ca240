package service

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/mohitkumar/flower/model"
)

const KIND_AGGREGATE = "aggregate"
const KIND_JSONPATH_SWITCH = "jsonpath-switch"
const KIND_EXPR_SWITCH = "expr-switch"
const KIND_JAVASCRIPT = "javascript"
const KIND_ECHO = "echo"
const KIND_TEMPLATE = "template"

type builtinOptions struct {
	Expression string            `mapstructure:"expression"`
	Cases      map[string]string `mapstructure:"cases"`
	Script     string            `mapstructure:"script"`
	Template   map[string]any    `mapstructure:"template"`
	TTL        time.Duration     `mapstructure:"ttl"`
	Streaming  bool              `mapstructure:"streaming"`
	Complete   bool              `mapstructure:"complete"`
}

var mapType = reflect.TypeOf(map[string]any{})

// RegisterDefinition builds a builtin service from its definition and registers it.
func (r *Registry) RegisterDefinition(def model.ServiceDefinition) error {
	var opts builtinOptions
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(def.Options); err != nil {
		return fmt.Errorf("service %s: invalid options: %w", def.Name, err)
	}
	var regOpts []Option
	if opts.Streaming {
		regOpts = append(regOpts, Streaming())
	}
	if opts.Complete {
		regOpts = append(regOpts, Completing())
	}

	switch def.Kind {
	case KIND_AGGREGATE:
		agg := NewAggregateService(opts.TTL)
		return r.Register(def.Name, func() Service { return agg }, append(regOpts, Shared())...)
	case KIND_JSONPATH_SWITCH:
		sw, err := NewJsonPathSwitch(opts.Expression, opts.Cases)
		if err != nil {
			return fmt.Errorf("service %s: %w", def.Name, err)
		}
		return r.Register(def.Name, func() Service { return sw }, append(regOpts, Shared(), ParamType(mapType))...)
	case KIND_EXPR_SWITCH:
		sw, err := NewExprSwitch(opts.Expression, opts.Cases)
		if err != nil {
			return fmt.Errorf("service %s: %w", def.Name, err)
		}
		return r.Register(def.Name, func() Service { return sw }, append(regOpts, Shared(), ParamType(mapType))...)
	case KIND_JAVASCRIPT:
		sc, err := NewScriptService(opts.Script)
		if err != nil {
			return fmt.Errorf("service %s: %w", def.Name, err)
		}
		return r.Register(def.Name, func() Service { return sc }, append(regOpts, Shared(), ParamType(mapType))...)
	case KIND_TEMPLATE:
		tpl, err := NewTemplateService(opts.Template)
		if err != nil {
			return fmt.Errorf("service %s: %w", def.Name, err)
		}
		return r.Register(def.Name, func() Service { return tpl }, append(regOpts, Shared(), ParamType(mapType))...)
	case KIND_ECHO:
		echo := ServiceFunc(func(param any, ctx *model.ServiceContext) (any, error) { return param, nil })
		return r.Register(def.Name, func() Service { return echo }, append(regOpts, Shared())...)
	}
	return fmt.Errorf("service %s: unknown kind %s", def.Name, def.Kind)
}

func (r *Registry) RegisterDefinitions(defs []model.ServiceDefinition) error {
	for _, def := range defs {
		if err := r.RegisterDefinition(def); err != nil {
			return err
		}
	}
	return nil
}
