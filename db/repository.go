package db

import (
	"context"
	"database/sql"
	"sort"

	sq "github.com/Masterminds/squirrel"

	"github.com/letterbox/mailbox-data-api/filter"
	"github.com/letterbox/mailbox-data-api/log"
	"github.com/letterbox/mailbox-data-api/schema"
	"github.com/letterbox/mailbox-data-api/types"
)

// Repository persists the records of one entity
type Repository interface {
	Entity() *schema.Entity
	// Insert stores a record and returns its primary key
	Insert(ctx context.Context, record types.Record) (int64, error)
	Update(ctx context.Context, patch types.Record, filters *filter.FilterSet) (int64, error)
	Delete(ctx context.Context, filters *filter.FilterSet) (int64, error)
	Select(ctx context.Context, filters *filter.FilterSet, page filter.Pagination) ([]types.Record, error)
	SelectFirst(ctx context.Context, filters *filter.FilterSet, page filter.Pagination) (types.Record, bool, error)
}

// TableRepository is the Repository of a table. It only knows the shape of the table, callers provide
// typed values and compiled filters.
type TableRepository struct {
	db     *Db
	entity *schema.Entity
	logger log.Logger
}

func (r *TableRepository) Entity() *schema.Entity {
	return r.entity
}

func (r *TableRepository) Insert(ctx context.Context, record types.Record) (int64, error) {
	columns, values, err := r.assignments(record)
	if err != nil {
		return 0, err
	}

	query, args, err := sq.Insert(quote(r.entity.Name())).
		Columns(quoteAll(columns)...).
		Values(values...).
		Suffix("RETURNING " + quote(r.entity.PrimaryKey())).
		PlaceholderFormat(r.db.dialect.placeholder()).
		ToSql()
	if err != nil {
		return 0, err
	}

	var pk int64
	err = r.db.inTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, args...).Scan(&pk)
	})
	if err != nil {
		return 0, r.fail("insert", err)
	}
	return pk, nil
}

func (r *TableRepository) Update(ctx context.Context, patch types.Record, filters *filter.FilterSet) (int64, error) {
	if filters.Empty() {
		return 0, types.NewNoSelectionCriteriaError("update")
	}
	columns, values, err := r.assignments(patch)
	if err != nil {
		return 0, err
	}

	builder := sq.Update(quote(r.entity.Name())).PlaceholderFormat(r.db.dialect.placeholder())
	for i, column := range columns {
		builder = builder.Set(quote(column), values[i])
	}
	query, args, err := builder.Where(filters.Sqlizer()).ToSql()
	if err != nil {
		return 0, err
	}

	return r.exec(ctx, "update", query, args)
}

func (r *TableRepository) Delete(ctx context.Context, filters *filter.FilterSet) (int64, error) {
	if filters.Empty() {
		return 0, types.NewNoSelectionCriteriaError("delete")
	}

	query, args, err := sq.Delete(quote(r.entity.Name())).
		Where(filters.Sqlizer()).
		PlaceholderFormat(r.db.dialect.placeholder()).
		ToSql()
	if err != nil {
		return 0, err
	}

	return r.exec(ctx, "delete", query, args)
}

func (r *TableRepository) exec(ctx context.Context, operation string, query string, args []interface{}) (int64, error) {
	var affected int64
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, r.fail(operation, err)
	}
	return affected, nil
}

// Select returns the page of matching records in the requested order, an empty slice when nothing matches
func (r *TableRepository) Select(
	ctx context.Context, filters *filter.FilterSet, page filter.Pagination,
) ([]types.Record, error) {
	columns := r.entity.Columns()
	names := make([]string, len(columns))
	for i, column := range columns {
		names[i] = quote(column.Name)
	}

	builder := sq.Select(names...).
		From(quote(r.entity.Name())).
		PlaceholderFormat(r.db.dialect.placeholder())
	if !filters.Empty() {
		builder = builder.Where(filters.Sqlizer())
	}
	if len(page.OrderBy) > 0 {
		builder = builder.OrderBy(orderBy(page.OrderBy)...)
	}
	if page.Limit > 0 {
		builder = builder.Limit(page.Limit)
	}
	builder = builder.Offset(page.Offset)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	records := make([]types.Record, 0)
	err = r.db.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			record, err := scanRecord(rows, columns)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, r.fail("select", err)
	}
	return records, nil
}

// SelectFirst returns the first record of the page, the boolean is false when nothing matches
func (r *TableRepository) SelectFirst(
	ctx context.Context, filters *filter.FilterSet, page filter.Pagination,
) (types.Record, bool, error) {
	page.Limit = 1
	records, err := r.Select(ctx, filters, page)
	if err != nil || len(records) == 0 {
		return nil, false, err
	}
	return records[0], true, nil
}

// assignments returns the columns of a record in a stable order along with their values
func (r *TableRepository) assignments(record types.Record) ([]string, []interface{}, error) {
	if len(record) == 0 {
		return nil, nil, types.NewMalformedBodyError("no column to write")
	}

	columns := make([]string, 0, len(record))
	for name := range record {
		if _, ok := r.entity.Column(name); !ok {
			return nil, nil, types.NewFieldDoesNotExistError(r.entity.Name(), name)
		}
		columns = append(columns, name)
	}
	sort.Strings(columns)

	values := make([]interface{}, len(columns))
	for i, name := range columns {
		values[i] = record[name]
	}
	return columns, values, nil
}

func (r *TableRepository) fail(operation string, err error) error {
	normalized := normalizeError(r.entity.Name(), err)
	r.logger.Error("statement failed", "operation", operation, "kind", types.KindOf(normalized), "error", err)
	return normalized
}

func scanRecord(rows *sql.Rows, columns []schema.Column) (types.Record, error) {
	holders := make([]interface{}, len(columns))
	for i, column := range columns {
		holders[i] = holderFor(column.Type)
	}
	if err := rows.Scan(holders...); err != nil {
		return nil, err
	}

	record := make(types.Record, len(columns))
	for i, column := range columns {
		record[column.Name] = valueOf(holders[i])
	}
	return record, nil
}

func holderFor(semanticType types.SemanticType) interface{} {
	switch semanticType {
	case types.TypeInteger:
		return &sql.NullInt64{}
	case types.TypeBoolean:
		return &sql.NullBool{}
	case types.TypeTimestamp:
		return &sql.NullTime{}
	default:
		return &sql.NullString{}
	}
}

func valueOf(holder interface{}) interface{} {
	switch h := holder.(type) {
	case *sql.NullInt64:
		if h.Valid {
			return h.Int64
		}
	case *sql.NullBool:
		if h.Valid {
			return h.Bool
		}
	case *sql.NullTime:
		if h.Valid {
			ts, _ := types.ToTimestamp(h.Time)
			return ts
		}
	case *sql.NullString:
		if h.Valid {
			return h.String
		}
	}
	return nil
}

func orderBy(terms []schema.OrderTerm) []string {
	clauses := make([]string, len(terms))
	for i, term := range terms {
		clauses[i] = quote(term.Column)
		if term.Descending {
			clauses[i] += " DESC"
		}
	}
	return clauses
}

func quote(identifier string) string {
	return filter.QuoteIdentifier(identifier)
}

func quoteAll(identifiers []string) []string {
	quoted := make([]string, len(identifiers))
	for i, identifier := range identifiers {
		quoted[i] = quote(identifier)
	}
	return quoted
}
