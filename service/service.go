package service

import (
	"context"
	"errors"

	"github.com/letterbox/mailbox-data-api/db"
	"github.com/letterbox/mailbox-data-api/filter"
	"github.com/letterbox/mailbox-data-api/log"
	"github.com/letterbox/mailbox-data-api/schema"
	"github.com/letterbox/mailbox-data-api/types"
)

// ErrSendUnsupported is returned by Send when no Sender is configured
var ErrSendUnsupported = errors.New("send is not supported for this entity")

// Sender delivers a stored record, e.g. a letter through SMTP
type Sender interface {
	Send(ctx context.Context, entity string, record types.Record) error
}

// Selection describes what Retrieve reads. Zero values mean absent.
type Selection struct {
	EntityID *int64
	Query    types.Query
	Actor    int64
}

// Service implements the operations exposed for one entity
type Service interface {
	Entity() *schema.Entity
	Create(ctx context.Context, body map[string]interface{}, actor int64) (*types.InsertResult, error)
	Update(ctx context.Context, body map[string]interface{}, actor int64, entityID *int64) (*types.UpdateResult, error)
	Delete(ctx context.Context, body map[string]interface{}, actor int64, entityID *int64) (*types.DeleteResult, error)
	// RetrieveAll returns the page of records matching the selection
	RetrieveAll(ctx context.Context, selection Selection) (*types.QueryResult, error)
	// RetrieveFirst returns the first record matching the selection, false when there is none
	RetrieveFirst(ctx context.Context, selection Selection) (types.Record, bool, error)
	Send(ctx context.Context, actor int64, entityID int64) (*types.SendResult, error)
}

type EntityService struct {
	entity     *schema.Entity
	repository db.Repository
	compiler   *filter.Compiler
	sender     Sender
	logger     log.Logger
}

func NewEntityService(repository db.Repository, compiler *filter.Compiler, logger log.Logger) *EntityService {
	return &EntityService{
		entity:     repository.Entity(),
		repository: repository,
		compiler:   compiler,
		logger:     logger.With("entity", repository.Entity().Name()),
	}
}

// WithSender enables the send operation
func (s *EntityService) WithSender(sender Sender) *EntityService {
	s.sender = sender
	return s
}

func (s *EntityService) Entity() *schema.Entity {
	return s.entity
}

func (s *EntityService) Create(
	ctx context.Context, body map[string]interface{}, actor int64,
) (*types.InsertResult, error) {
	var b createBody
	if err := s.decode("create", body, &b); err != nil {
		return nil, err
	}

	payload := make(types.Record, len(b.Payload)+1)
	for key, value := range b.Payload {
		payload[key] = value
	}
	if owner := s.entity.OwnerColumn(); owner != "" && actor != 0 {
		payload[owner] = actor
	}

	record, err := s.cast(payload)
	if err != nil {
		return nil, err
	}
	s.applyDefaults(record)

	pk, err := s.repository.Insert(ctx, record)
	if err != nil {
		return nil, err
	}
	return &types.InsertResult{InsertedPK: pk}, nil
}

func (s *EntityService) Update(
	ctx context.Context, body map[string]interface{}, actor int64, entityID *int64,
) (*types.UpdateResult, error) {
	var b updateBody
	if err := s.decode("update", body, &b); err != nil {
		return nil, err
	}

	filters, err := s.selection("update", b.FilterSet, actor, entityID)
	if err != nil {
		return nil, err
	}

	patch, err := s.cast(b.Payload)
	if err != nil {
		return nil, err
	}
	// rows stay with the actor
	if owner := s.entity.OwnerColumn(); owner != "" && actor != 0 {
		if _, ok := patch[owner]; ok {
			patch[owner] = actor
		}
	}

	updated, err := s.repository.Update(ctx, patch, filters)
	if err != nil {
		return nil, err
	}
	return &types.UpdateResult{UpdatedRows: updated}, nil
}

func (s *EntityService) Delete(
	ctx context.Context, body map[string]interface{}, actor int64, entityID *int64,
) (*types.DeleteResult, error) {
	var b deleteBody
	if err := s.decode("delete", body, &b); err != nil {
		return nil, err
	}

	filters, err := s.selection("delete", b.FilterSet, actor, entityID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.repository.Delete(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &types.DeleteResult{DeletedRows: deleted}, nil
}

// selection compiles the filters of a mutation: the filter set when given, else the entity id. A selection
// matching every row is refused. When the entity is owned the filters are narrowed to the actor's rows.
func (s *EntityService) selection(
	operation string, filterSet map[string]interface{}, actor int64, entityID *int64,
) (*filter.FilterSet, error) {
	var query types.Query
	switch {
	case filterSet != nil:
		query = types.Query(filterSet)
	case entityID != nil:
		query = types.Query{s.entity.PrimaryKey(): *entityID}
	default:
		return nil, types.NewNoSelectionCriteriaError(operation)
	}

	compiled, err := s.compiler.CompileQuery(s.entity.Name(), query)
	if err != nil {
		return nil, err
	}
	if compiled.Filters.Empty() {
		return nil, types.NewNoSelectionCriteriaError(operation)
	}

	owned, err := s.ownedBy(actor)
	if err != nil {
		return nil, err
	}
	return compiled.Filters.With(owned), nil
}

// ownedBy returns the filter restricting rows to the actor, empty when the entity has no owner
func (s *EntityService) ownedBy(actor int64) (*filter.FilterSet, error) {
	owner := s.entity.OwnerColumn()
	if owner == "" || actor == 0 {
		return filter.NewFilterSet(), nil
	}
	column, _ := s.entity.Column(owner)
	return s.compiler.Compile(s.entity, []filter.Binding{{
		Spec:  filter.FieldSpec{Key: owner, Type: column.Type, Operator: string(filter.OpEq)},
		Value: actor,
	}})
}

func (s *EntityService) RetrieveAll(ctx context.Context, selection Selection) (*types.QueryResult, error) {
	filters, page, err := s.compileSelection(selection)
	if err != nil {
		return nil, err
	}

	records, err := s.repository.Select(ctx, filters, page)
	if err != nil {
		return nil, err
	}
	return &types.QueryResult{Data: types.ToTransportRecords(records)}, nil
}

func (s *EntityService) RetrieveFirst(ctx context.Context, selection Selection) (types.Record, bool, error) {
	filters, page, err := s.compileSelection(selection)
	if err != nil {
		return nil, false, err
	}

	record, ok, err := s.repository.SelectFirst(ctx, filters, page)
	if err != nil || !ok {
		return nil, false, err
	}
	return types.ToTransportRecord(record), true, nil
}

// compileSelection builds the filters of a read: the entity id when given, else the query, always narrowed
// to the actor's rows. The owner filter can not be overridden by the query.
func (s *EntityService) compileSelection(selection Selection) (*filter.FilterSet, filter.Pagination, error) {
	if selection.EntityID == nil && len(selection.Query) == 0 && selection.Actor == 0 {
		return nil, filter.Pagination{}, types.NewNoSelectionCriteriaError("retrieve")
	}

	query := make(types.Query, len(selection.Query)+1)
	owner := s.entity.OwnerColumn()
	for key, value := range selection.Query {
		normalized := filter.NormalizeKey(key)
		if owner != "" && normalized == owner {
			continue
		}
		if selection.EntityID != nil && normalized != "offset" && normalized != "limit" {
			continue
		}
		query[key] = value
	}
	if selection.EntityID != nil {
		query[s.entity.PrimaryKey()] = *selection.EntityID
	}

	compiled, err := s.compiler.CompileQuery(s.entity.Name(), query)
	if err != nil {
		return nil, filter.Pagination{}, err
	}

	owned, err := s.ownedBy(selection.Actor)
	if err != nil {
		return nil, filter.Pagination{}, err
	}
	return compiled.Filters.With(owned), compiled.Page, nil
}

func (s *EntityService) Send(ctx context.Context, actor int64, entityID int64) (*types.SendResult, error) {
	if s.sender == nil {
		return nil, ErrSendUnsupported
	}

	filters, page, err := s.compileSelection(Selection{EntityID: &entityID, Actor: actor})
	if err != nil {
		return nil, err
	}
	record, ok, err := s.repository.SelectFirst(ctx, filters, page)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.SendResult{Sent: false}, nil
	}

	if err := s.sender.Send(ctx, s.entity.Name(), record); err != nil {
		s.logger.Error("send failed", "id", entityID, "error", err)
		return nil, err
	}
	return &types.SendResult{Sent: true}, nil
}

func (s *EntityService) decode(operation string, body map[string]interface{}, target interface{}) error {
	if err := decodeBody(body, target); err != nil {
		s.logger.Debug("rejected body", "operation", operation, "error", err)
		return err
	}
	return nil
}

// cast coerces every payload value to the semantic type of its column
func (s *EntityService) cast(payload map[string]interface{}) (types.Record, error) {
	record := make(types.Record, len(payload))
	for key, value := range payload {
		column, ok := s.entity.Column(key)
		if !ok {
			return nil, types.NewFieldDoesNotExistError(s.entity.Name(), key)
		}
		typed, err := types.Coerce(value, column.Type)
		if err != nil {
			return nil, err
		}
		record[key] = typed
	}
	return record, nil
}

// applyDefaults fills the columns absent from a new record with their declared default
func (s *EntityService) applyDefaults(record types.Record) {
	for _, column := range s.entity.Columns() {
		if _, ok := record[column.Name]; !ok && column.Default != nil {
			record[column.Name] = column.Default
		}
	}
}
