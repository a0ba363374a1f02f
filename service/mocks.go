package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/letterbox/mailbox-data-api/schema"
	"github.com/letterbox/mailbox-data-api/types"
)

type ServiceMock struct {
	mock.Mock
	entity *schema.Entity
}

func NewServiceMock(entity *schema.Entity) *ServiceMock {
	return &ServiceMock{entity: entity}
}

func (o *ServiceMock) Entity() *schema.Entity {
	return o.entity
}

func (o *ServiceMock) Create(
	ctx context.Context, body map[string]interface{}, actor int64,
) (*types.InsertResult, error) {
	args := o.Called(body, actor)
	result, _ := args.Get(0).(*types.InsertResult)
	return result, args.Error(1)
}

func (o *ServiceMock) Update(
	ctx context.Context, body map[string]interface{}, actor int64, entityID *int64,
) (*types.UpdateResult, error) {
	args := o.Called(body, actor, entityID)
	result, _ := args.Get(0).(*types.UpdateResult)
	return result, args.Error(1)
}

func (o *ServiceMock) Delete(
	ctx context.Context, body map[string]interface{}, actor int64, entityID *int64,
) (*types.DeleteResult, error) {
	args := o.Called(body, actor, entityID)
	result, _ := args.Get(0).(*types.DeleteResult)
	return result, args.Error(1)
}

func (o *ServiceMock) RetrieveAll(ctx context.Context, selection Selection) (*types.QueryResult, error) {
	args := o.Called(selection)
	result, _ := args.Get(0).(*types.QueryResult)
	return result, args.Error(1)
}

func (o *ServiceMock) RetrieveFirst(ctx context.Context, selection Selection) (types.Record, bool, error) {
	args := o.Called(selection)
	record, _ := args.Get(0).(types.Record)
	return record, args.Bool(1), args.Error(2)
}

func (o *ServiceMock) Send(ctx context.Context, actor int64, entityID int64) (*types.SendResult, error) {
	args := o.Called(actor, entityID)
	result, _ := args.Get(0).(*types.SendResult)
	return result, args.Error(1)
}

type SenderMock struct {
	mock.Mock
}

func (o *SenderMock) Send(ctx context.Context, entity string, record types.Record) error {
	return o.Called(entity, record).Error(0)
}
