package endpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/letterbox/mailbox-data-api/auth"
	"github.com/letterbox/mailbox-data-api/filter"
	"github.com/letterbox/mailbox-data-api/service"
	"github.com/letterbox/mailbox-data-api/types"
)

const (
	commandCreate = "create"
	commandUpdate = "update"
	commandDelete = "delete"
	commandSend   = "send"
)

// maxBodySize bounds the request bodies read by the handlers
const maxBodySize = 1 << 20

// GetEntities lists the records of the actor matching the url query
func (s *routeList) GetEntities(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}

	result, err := svc.RetrieveAll(r.Context(), service.Selection{
		Query: filter.FromValues(r.URL.Query()),
		Actor: auth.ContextActor(r.Context()),
	})
	if err != nil {
		RespondWithServiceError(w, err, s.logger)
		return
	}
	RespondJSONObjectWithCode(w, http.StatusOK, result)
}

// GetEntity returns one record by id
func (s *routeList) GetEntity(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	id, ok := s.entityID(w, r)
	if !ok {
		return
	}

	record, found, err := svc.RetrieveFirst(r.Context(), service.Selection{
		EntityID: &id,
		Query:    filter.FromValues(r.URL.Query()),
		Actor:    auth.ContextActor(r.Context()),
	})
	if err != nil {
		RespondWithServiceError(w, err, s.logger)
		return
	}
	if !found {
		RespondWithError(w, http.StatusNotFound,
			fmt.Sprintf("%s %d not found", svc.Entity().Name(), id), kindNotFound)
		return
	}
	RespondJSONObjectWithCode(w, http.StatusOK, record)
}

// PostCommand runs a command selecting its records through the body
func (s *routeList) PostCommand(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	body, ok := s.body(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	actor := auth.ContextActor(ctx)

	var result interface{}
	var err error
	switch command := s.params(r, "target"); command {
	case commandCreate:
		result, err = svc.Create(ctx, body, actor)
	case commandUpdate:
		result, err = svc.Update(ctx, body, actor, nil)
	case commandDelete:
		result, err = svc.Delete(ctx, body, actor, nil)
	case commandSend:
		err = types.NewNoSelectionCriteriaError(commandSend)
	default:
		s.unknownCommand(w, command)
		return
	}

	s.respond(w, result, err)
}

// PostEntityCommand runs a command on the record identified in the path
func (s *routeList) PostEntityCommand(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	id, ok := s.entityID(w, r)
	if !ok {
		return
	}
	body, ok := s.body(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	actor := auth.ContextActor(ctx)

	var result interface{}
	var err error
	switch command := s.params(r, "command"); command {
	case commandUpdate:
		result, err = svc.Update(ctx, body, actor, &id)
	case commandDelete:
		result, err = svc.Delete(ctx, body, actor, &id)
	case commandSend:
		result, err = svc.Send(ctx, actor, id)
	default:
		s.unknownCommand(w, command)
		return
	}

	s.respond(w, result, err)
}

func (s *routeList) respond(w http.ResponseWriter, result interface{}, err error) {
	if err != nil {
		RespondWithServiceError(w, err, s.logger)
		return
	}
	RespondJSONObjectWithCode(w, http.StatusOK, result)
}

func (s *routeList) service(w http.ResponseWriter, r *http.Request) (service.Service, bool) {
	name := s.params(r, "entity")
	svc, ok := s.services[name]
	if !ok {
		RespondWithServiceError(w, types.NewTableDoesNotExistError(name), s.logger)
	}
	return svc, ok
}

func (s *routeList) entityID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := s.params(r, "target")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		RespondWithServiceError(w, types.NewValueCoercionError(raw, "an entity id", err), s.logger)
		return 0, false
	}
	return id, true
}

func (s *routeList) unknownCommand(w http.ResponseWriter, command string) {
	RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("unknown command '%s'", command), kindUnknownCommand)
}

// body decodes the JSON object of the request, an empty body decodes to nil
func (s *routeList) body(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	if r.Body == nil {
		return nil, true
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	decoder.UseNumber()

	var body map[string]interface{}
	if err := decoder.Decode(&body); err != nil && err != io.EOF {
		s.logger.Debug("unable to decode body", "path", r.URL.Path, "error", err)
		RespondWithServiceError(w, types.NewMalformedBodyError("body must be a JSON object"), s.logger)
		return nil, false
	}
	return body, true
}
