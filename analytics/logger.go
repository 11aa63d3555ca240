package analytics

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogFileDataCollector struct {
	fileName string
	logger   *zap.Logger
}

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(fileEncoder, zapcore.AddSync(logFile), zapcore.InfoLevel)
	return &LogFileDataCollector{
		fileName: fileName,
		logger:   zap.New(core),
	}, nil
}

func (lc *LogFileDataCollector) RecordServiceSuccess(flowName string, id string, serviceName string, elapsed time.Duration, result any) {
	lc.logger.Info("success", zap.String("flow", flowName), zap.String("id", id), zap.String("service", serviceName), zap.Duration("elapsed", elapsed), zap.Any("result", result))
}

func (lc *LogFileDataCollector) RecordServiceFailure(flowName string, id string, serviceName string, elapsed time.Duration, reason string) {
	lc.logger.Info("failure", zap.String("flow", flowName), zap.String("id", id), zap.String("service", serviceName), zap.Duration("elapsed", elapsed), zap.String("reason", reason))
}

func (lc *LogFileDataCollector) Sync() error {
	return lc.logger.Sync()
}
