package endpoint

import (
	"net/http"
	"path"

	"github.com/julienschmidt/httprouter"

	"github.com/letterbox/mailbox-data-api/log"
	"github.com/letterbox/mailbox-data-api/service"
	"github.com/letterbox/mailbox-data-api/types"
)

const (
	EntityPathFormat        = "/%s"
	EntityTargetPathFormat  = "/%s/%s"
	EntityCommandPathFormat = "/%s/%s/%s"
)

type routeList struct {
	services map[string]service.Service
	logger   log.Logger
	params   func(*http.Request, string) string
}

// Routes returns the routes serving every entity service under prefix
func Routes(prefix string, services []service.Service, logger log.Logger) []types.Route {
	rl := routeList{
		services: make(map[string]service.Service, len(services)),
		logger:   logger,
		params:   httprouterParam,
	}
	for _, s := range services {
		rl.services[s.Entity().Name()] = s
	}

	return []types.Route{
		{
			Method:  http.MethodGet,
			Pattern: path.Join(prefix, "/:entity"),
			Handler: http.HandlerFunc(rl.GetEntities),
		},
		{
			Method:  http.MethodGet,
			Pattern: path.Join(prefix, "/:entity/:target"),
			Handler: http.HandlerFunc(rl.GetEntity),
		},
		{
			Method:  http.MethodPost,
			Pattern: path.Join(prefix, "/:entity/:target"),
			Handler: http.HandlerFunc(rl.PostCommand),
		},
		{
			Method:  http.MethodPost,
			Pattern: path.Join(prefix, "/:entity/:target/:command"),
			Handler: http.HandlerFunc(rl.PostEntityCommand),
		},
	}
}

func httprouterParam(r *http.Request, name string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(name)
}
