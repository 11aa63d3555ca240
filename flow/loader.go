package flow

import (
	"fmt"
	"os"

	"github.com/mohitkumar/flower/model"
	"gopkg.in/yaml.v3"
)

// File is the YAML document holding flows and builtin services.
type File struct {
	Services []model.ServiceDefinition `yaml:"services" validate:"dive"`
	Flows    []model.FlowDefinition    `yaml:"flows" validate:"dive"`
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid flow file: %w", err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid flow file: %w", err)
	}
	for i := range f.Flows {
		if err := Validate(&f.Flows[i]); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// Store saves every flow of the file.
func (f *File) Store(r *Repository) error {
	for _, def := range f.Flows {
		if err := r.Save(def); err != nil {
			return err
		}
	}
	return nil
}
