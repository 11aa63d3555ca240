package redis

import (
	"context"
	"errors"
	"sort"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/flower/codec"
	"github.com/mohitkumar/flower/logger"
	"github.com/mohitkumar/flower/model"
	"github.com/mohitkumar/flower/persistence"
	"go.uber.org/zap"
)

const FLOW_DEF string = "FLOW"

var _ persistence.MetadataStorage = new(redisMetadataStorage)

// redisMetadataStorage keeps all flow definitions in one hash keyed by flow name.
type redisMetadataStorage struct {
	*baseDao
	encDec codec.Codec
}

func NewRedisMetadataStorage(conf Config) *redisMetadataStorage {
	return &redisMetadataStorage{
		baseDao: newBaseDao(conf),
		encDec:  codec.NewJsonCodec(),
	}
}

func (rfd *redisMetadataStorage) SaveFlowDefinition(def model.FlowDefinition) error {
	data, err := rfd.encDec.Encode(def)
	if err != nil {
		return err
	}
	key := rfd.getNamespaceKey(FLOW_DEF)
	ctx := context.Background()
	if err := rfd.redisClient.HSet(ctx, key, def.Name, string(data)).Err(); err != nil {
		logger.Error("error in saving flow definition", zap.String("flow", def.Name), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rfd *redisMetadataStorage) DeleteFlowDefinition(name string) error {
	key := rfd.getNamespaceKey(FLOW_DEF)
	ctx := context.Background()
	if err := rfd.redisClient.HDel(ctx, key, name).Err(); err != nil {
		logger.Error("error in deleting flow definition", zap.String("flow", name), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rfd *redisMetadataStorage) GetFlowDefinition(name string) (*model.FlowDefinition, error) {
	key := rfd.getNamespaceKey(FLOW_DEF)
	ctx := context.Background()
	val, err := rfd.redisClient.HGet(ctx, key, name).Result()
	if errors.Is(err, rd.Nil) {
		return nil, persistence.NotFoundError{Name: name}
	}
	if err != nil {
		logger.Error("error in getting flow definition", zap.String("flow", name), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	def, err := codec.DecodeAs[model.FlowDefinition](rfd.encDec, []byte(val))
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (rfd *redisMetadataStorage) ListFlowDefinitions() ([]string, error) {
	key := rfd.getNamespaceKey(FLOW_DEF)
	ctx := context.Background()
	names, err := rfd.redisClient.HKeys(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing flow definitions", zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	sort.Strings(names)
	return names, nil
}
