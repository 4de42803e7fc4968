package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"community-service/internal/observability"
	"community-service/internal/store"
)

type GatewayMock struct {
	mock.Mock
}

func (m *GatewayMock) Create(ctx context.Context, collection string, doc json.RawMessage) (json.RawMessage, error) {
	args := m.Called(ctx, collection, doc)
	var raw json.RawMessage
	if val := args.Get(0); val != nil {
		raw = val.(json.RawMessage)
	}
	return raw, args.Error(1)
}

func (m *GatewayMock) Update(ctx context.Context, collection, id string, patch map[string]any) (json.RawMessage, error) {
	args := m.Called(ctx, collection, id, patch)
	var raw json.RawMessage
	if val := args.Get(0); val != nil {
		raw = val.(json.RawMessage)
	}
	return raw, args.Error(1)
}

func (m *GatewayMock) Delete(ctx context.Context, collection, id string) (bool, error) {
	args := m.Called(ctx, collection, id)
	return args.Bool(0), args.Error(1)
}

func (m *GatewayMock) GetOne(ctx context.Context, collection, id string) (json.RawMessage, error) {
	args := m.Called(ctx, collection, id)
	var raw json.RawMessage
	if val := args.Get(0); val != nil {
		raw = val.(json.RawMessage)
	}
	return raw, args.Error(1)
}

func (m *GatewayMock) GetAll(ctx context.Context, collection string) ([]json.RawMessage, error) {
	args := m.Called(ctx, collection)
	var docs []json.RawMessage
	if val := args.Get(0); val != nil {
		docs = val.([]json.RawMessage)
	}
	return docs, args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) PublishJSON(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error {
	args := m.Called(ctx, routingKey, message, headers)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ store.Gateway = (*GatewayMock)(nil)
var _ observability.Publisher = (*PublisherMock)(nil)
