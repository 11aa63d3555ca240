package persistence

import (
	"fmt"

	"github.com/mohitkumar/flower/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

type NotFoundError struct {
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("flow definition %s not found", e.Name)
}

// MetadataStorage keeps flow definitions.
type MetadataStorage interface {
	SaveFlowDefinition(def model.FlowDefinition) error
	DeleteFlowDefinition(name string) error
	GetFlowDefinition(name string) (*model.FlowDefinition, error)
	ListFlowDefinitions() ([]string, error)
}
