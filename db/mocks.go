package db

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/letterbox/mailbox-data-api/filter"
	"github.com/letterbox/mailbox-data-api/schema"
	"github.com/letterbox/mailbox-data-api/types"
)

type RepositoryMock struct {
	mock.Mock
	entity *schema.Entity
}

func NewRepositoryMock(entity *schema.Entity) *RepositoryMock {
	return &RepositoryMock{entity: entity}
}

func (o *RepositoryMock) Entity() *schema.Entity {
	return o.entity
}

func (o *RepositoryMock) Insert(ctx context.Context, record types.Record) (int64, error) {
	args := o.Called(record)
	return args.Get(0).(int64), args.Error(1)
}

func (o *RepositoryMock) Update(ctx context.Context, patch types.Record, filters *filter.FilterSet) (int64, error) {
	args := o.Called(patch, filters)
	return args.Get(0).(int64), args.Error(1)
}

func (o *RepositoryMock) Delete(ctx context.Context, filters *filter.FilterSet) (int64, error) {
	args := o.Called(filters)
	return args.Get(0).(int64), args.Error(1)
}

func (o *RepositoryMock) Select(
	ctx context.Context, filters *filter.FilterSet, page filter.Pagination,
) ([]types.Record, error) {
	args := o.Called(filters, page)
	records, _ := args.Get(0).([]types.Record)
	return records, args.Error(1)
}

func (o *RepositoryMock) SelectFirst(
	ctx context.Context, filters *filter.FilterSet, page filter.Pagination,
) (types.Record, bool, error) {
	args := o.Called(filters, page)
	record, _ := args.Get(0).(types.Record)
	return record, args.Bool(1), args.Error(2)
}
