package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mohitkumar/flower/model"
	"github.com/oliveagle/jsonpath"
)

var tokenPattern = regexp.MustCompile("{(.*?)}")

// TemplateService builds a new map from a template whose string values may
// hold {$.path} tokens looked up in the input.
type TemplateService struct {
	template map[string]any
}

func NewTemplateService(template map[string]any) (*TemplateService, error) {
	if len(template) == 0 {
		return nil, fmt.Errorf("template can not be empty")
	}
	return &TemplateService{template: template}, nil
}

func (s *TemplateService) Process(param any, ctx *model.ServiceContext) (any, error) {
	data, _ := param.(map[string]any)
	out := make(map[string]any, len(s.template))
	resolveParams(data, s.template, out)
	return out, nil
}

func resolveParams(data map[string]any, params map[string]any, output map[string]any) {
	for k, v := range params {
		output[k] = resolveValue(data, v)
	}
}

func resolveValue(data map[string]any, v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		resolveParams(data, val, out)
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, resolveValue(data, item))
		}
		return out
	case string:
		return resolveString(data, val)
	}
	return v
}

// resolveString replaces every {$...} token. A string made of one token
// keeps the type of the value it points to.
func resolveString(data map[string]any, s string) any {
	tokens := tokenPattern.FindAllString(s, -1)
	if len(tokens) == 1 && tokens[0] == s {
		if value, ok := lookup(data, s); ok {
			return value
		}
		return s
	}
	for _, token := range tokens {
		if value, ok := lookup(data, token); ok {
			s = strings.ReplaceAll(s, token, fmt.Sprintf("%v", value))
		}
	}
	return s
}

func lookup(data map[string]any, token string) (any, bool) {
	path := strings.TrimSuffix(strings.TrimPrefix(token, "{"), "}")
	if !strings.HasPrefix(path, "$") {
		return nil, false
	}
	value, err := jsonpath.JsonPathLookup(data, path)
	if err != nil {
		return nil, true
	}
	return value, true
}
