package config

import (
	"github.com/letterbox/mailbox-data-api/log"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type ConfigMock struct {
	mock.Mock
}

func NewConfigMock() *ConfigMock {
	return &ConfigMock{}
}

func (o *ConfigMock) Default() *ConfigMock {
	o.On("MaxLimit").Return(uint64(DefaultMaxLimit))
	o.On("FilterCacheSize").Return(DefaultFilterCacheSize)
	o.On("FilterOperators").Return(FilterOperators(0))
	o.On("PrePing").Return(true)
	o.On("Logger").Return(log.NewZapLogger(zap.NewNop()))
	return o
}

func (o *ConfigMock) MaxLimit() uint64 {
	args := o.Called()
	return args.Get(0).(uint64)
}

func (o *ConfigMock) FilterCacheSize() int {
	args := o.Called()
	return args.Int(0)
}

func (o *ConfigMock) FilterOperators() FilterOperators {
	args := o.Called()
	return args.Get(0).(FilterOperators)
}

func (o *ConfigMock) PrePing() bool {
	args := o.Called()
	return args.Bool(0)
}

func (o *ConfigMock) Logger() log.Logger {
	args := o.Called()
	return args.Get(0).(log.Logger)
}
