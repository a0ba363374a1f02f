package rest

import (
	"github.com/letterbox/mailbox-data-api/log"
	restEndpointV1 "github.com/letterbox/mailbox-data-api/rest/endpoint/v1"
	"github.com/letterbox/mailbox-data-api/service"
	"github.com/letterbox/mailbox-data-api/types"
)

type RouteGenerator struct {
	services []service.Service
	logger   log.Logger
}

func NewRouteGenerator(logger log.Logger, services ...service.Service) *RouteGenerator {
	return &RouteGenerator{
		services: services,
		logger:   logger,
	}
}

func (g *RouteGenerator) Routes(prefix string) []types.Route {
	return restEndpointV1.Routes(prefix, g.services, g.logger)
}
