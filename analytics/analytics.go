package analytics

import "time"

type DataCollectorConfig struct {
	FileName      string            `json:"fileName" yaml:"fileName" mapstructure:"file-name"`
	CollectorType DataCollectorType `json:"collectorType" yaml:"collectorType" mapstructure:"collector-type" default:"NOOP_DATA_COLLECTOR" validate:"oneof=NOOP_DATA_COLLECTOR LOG_FILE_DATA_COLLECTOR"`
}

type DataCollectorType string

const NOOP_DATA_COLLECTOR DataCollectorType = "NOOP_DATA_COLLECTOR"
const LOG_FILE_DATA_COLLECTOR DataCollectorType = "LOG_FILE_DATA_COLLECTOR"

// DataCollector records the outcome of every service invocation.
type DataCollector interface {
	RecordServiceSuccess(flowName string, id string, serviceName string, elapsed time.Duration, result any)
	RecordServiceFailure(flowName string, id string, serviceName string, elapsed time.Duration, reason string)
}

func NewDataCollector(config DataCollectorConfig) (DataCollector, error) {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		return NewLogFileDataCollector(config.FileName)
	}
	return NoopDataCollector{}, nil
}

type NoopDataCollector struct{}

func (NoopDataCollector) RecordServiceSuccess(string, string, string, time.Duration, any)    {}
func (NoopDataCollector) RecordServiceFailure(string, string, string, time.Duration, string) {}
