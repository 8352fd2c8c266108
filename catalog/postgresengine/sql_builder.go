package postgresengine

import (
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

const (
	dialectPostgres = "postgres"
	aliasRow        = "r"
	aliasStage      = "s%d"
	castText        = "TEXT"
	castDouble      = "DOUBLE PRECISION"
	castTextArray   = "?::text[]"
	castTimeArray   = "?::timestamptz[]"
	castJsonb       = "?::jsonb"
	sqlTrue         = "TRUE"
	sqlFalse        = "FALSE"
	sqlNull         = "NULL"
)

var columnJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	sqlQueryString = string
	columnKind     int
)

const (
	columnScalar columnKind = iota + 1
	columnArray
	columnObject
	columnObjectList
)

// columnSet tracks the columns (and their storage kind) visible at one point of a statement.
type columnSet struct {
	names []string
	kinds map[string]columnKind
}

func tourColumns() columnSet {
	cols := columnSet{kinds: make(map[string]columnKind)}

	for _, field := range catalog.TourFields() {
		kind, _ := catalog.TourFieldKind(field)
		cols = cols.with(field, columnKindOf(kind))
	}

	return cols
}

func columnKindOf(kind catalog.FieldKind) columnKind {
	switch kind {
	case catalog.KindTextList, catalog.KindTimeList:
		return columnArray
	case catalog.KindObject:
		return columnObject
	case catalog.KindObjectList:
		return columnObjectList
	default:
		return columnScalar
	}
}

func (c columnSet) with(name string, kind columnKind) columnSet {
	if _, exists := c.kinds[name]; !exists {
		c.names = append(c.names, name)
	}

	c.kinds[name] = kind

	return c
}

func (c columnSet) kind(name string) (columnKind, bool) {
	kind, ok := c.kinds[name]
	return kind, ok
}

func (c columnSet) identifiers() []any {
	idents := make([]any, 0, len(c.names))
	for _, name := range c.names {
		idents = append(idents, goqu.C(name))
	}

	return idents
}

/***** find *****/

func (s CollectionStore) buildFindQuery(query catalog.Query) (sqlQueryString, error) {
	cols := tourColumns()

	where, err := whereExpressions(cols, query.Predicates())
	if err != nil {
		return "", err
	}

	selectStmt := goqu.Dialect(dialectPostgres).
		From(s.tableName).
		Select(projectedDocument(query.Projection())).
		Where(where...).
		Order(orderExpressions(cols, query.Sort())...)

	if query.Skip() > 0 {
		selectStmt = selectStmt.Offset(uint(query.Skip()))
	}

	if query.Limit() > 0 {
		selectStmt = selectStmt.Limit(uint(query.Limit()))
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(catalog.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// projectedDocument renders the surviving columns as one JSON object per row.
func projectedDocument(projection catalog.Projection) exp.CastExpression {
	args := make([]any, 0)
	for _, field := range catalog.TourFields() {
		if projection.Returns(field) {
			args = append(args, goqu.V(field), goqu.C(field))
		}
	}

	return goqu.Cast(goqu.Func("json_strip_nulls", goqu.Func("json_build_object", args...)), castText)
}

/***** predicates and sorting *****/

func whereExpressions(cols columnSet, predicates []catalog.Predicate) ([]exp.Expression, error) {
	expressions := make([]exp.Expression, 0, len(predicates))

	for _, predicate := range predicates {
		expression, err := predicateExpression(cols, predicate)
		if err != nil {
			return nil, err
		}

		expressions = append(expressions, expression)
	}

	return expressions, nil
}

func predicateExpression(cols columnSet, predicate catalog.Predicate) (exp.Expression, error) {
	op := predicate.Operator()

	switch op {
	case catalog.OpEq, catalog.OpNe, catalog.OpGt, catalog.OpGte, catalog.OpLt, catalog.OpLte, catalog.OpIn:
	default:
		return nil, &catalog.QueryParseError{Param: predicate.Field(), Reason: "unsupported operator " + string(op)}
	}

	kind, known := cols.kind(predicate.Field())
	if !known {
		// documents never have unknown fields, so only ne can match
		if op == catalog.OpNe {
			return goqu.L(sqlTrue), nil
		}
		return goqu.L(sqlFalse), nil
	}

	switch kind {
	case columnArray:
		return arrayPredicate(goqu.C(predicate.Field()), predicate), nil
	case columnObject, columnObjectList:
		return nil, &catalog.QueryParseError{Param: predicate.Field(), Reason: "nested objects can not be filtered"}
	default:
		return scalarPredicate(goqu.C(predicate.Field()), predicate), nil
	}
}

func scalarPredicate(col exp.IdentifierExpression, predicate catalog.Predicate) exp.Expression {
	val := sqlValue(predicate.Val())

	switch predicate.Operator() {
	case catalog.OpNe:
		return goqu.Or(col.IsNull(), col.Neq(val))
	case catalog.OpGt:
		return col.Gt(val)
	case catalog.OpGte:
		return col.Gte(val)
	case catalog.OpLt:
		return col.Lt(val)
	case catalog.OpLte:
		return col.Lte(val)
	case catalog.OpIn:
		if len(predicate.Vals()) == 0 {
			return goqu.L(sqlFalse)
		}
		vals := make([]any, 0, len(predicate.Vals()))
		for _, v := range predicate.Vals() {
			vals = append(vals, sqlValue(v))
		}
		return col.In(vals...)
	default:
		return col.Eq(val)
	}
}

// arrayPredicate matches if any element of the array column satisfies the predicate.
func arrayPredicate(col exp.IdentifierExpression, predicate catalog.Predicate) exp.Expression {
	val := sqlValue(predicate.Val())

	switch predicate.Operator() {
	case catalog.OpNe:
		return goqu.Or(col.IsNull(), goqu.L("NOT (? = ANY(?))", val, col))
	case catalog.OpGt:
		return goqu.L("? < ANY(?)", val, col)
	case catalog.OpGte:
		return goqu.L("? <= ANY(?)", val, col)
	case catalog.OpLt:
		return goqu.L("? > ANY(?)", val, col)
	case catalog.OpLte:
		return goqu.L("? >= ANY(?)", val, col)
	case catalog.OpIn:
		anyOf := make([]exp.Expression, 0, len(predicate.Vals()))
		for _, v := range predicate.Vals() {
			anyOf = append(anyOf, goqu.L("? = ANY(?)", sqlValue(v), col))
		}
		if len(anyOf) == 0 {
			return goqu.L(sqlFalse)
		}
		return goqu.Or(anyOf...)
	default:
		return goqu.L("? = ANY(?)", val, col)
	}
}

func sqlValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}

	return catalog.NormalizeValue(v)
}

// orderExpressions sorts missing values first, like every other engine. Unknown fields are ignored.
func orderExpressions(cols columnSet, sortFields []catalog.SortField) []exp.OrderedExpression {
	order := make([]exp.OrderedExpression, 0, len(sortFields))

	for _, sortField := range sortFields {
		if _, known := cols.kind(sortField.Field()); !known {
			continue
		}

		if sortField.Descending() {
			order = append(order, goqu.C(sortField.Field()).Desc().NullsLast())
		} else {
			order = append(order, goqu.C(sortField.Field()).Asc().NullsFirst())
		}
	}

	return order
}

/***** insert and update *****/

func (s CollectionStore) buildInsertQuery(tour catalog.Tour) (sqlQueryString, error) {
	record, err := tourRecord(tour)
	if err != nil {
		return "", err
	}

	insertStmt := goqu.Dialect(dialectPostgres).Insert(s.tableName).Rows(record)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(catalog.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s CollectionStore) buildUpdateQuery(tour catalog.Tour, expectedVersion catalog.VersionUint) (sqlQueryString, error) {
	tour.Version = expectedVersion + 1

	record, err := tourRecord(tour)
	if err != nil {
		return "", err
	}

	delete(record, catalog.FieldID)

	updateStmt := goqu.Dialect(dialectPostgres).
		Update(s.tableName).
		Set(record).
		Where(
			goqu.C(catalog.FieldID).Eq(tour.ID),
			goqu.C(catalog.FieldVersion).Eq(int64(expectedVersion)),
		)

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(catalog.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s CollectionStore) buildDeleteQuery(id string) (sqlQueryString, error) {
	deleteStmt := goqu.Dialect(dialectPostgres).Delete(s.tableName)
	if id != "" {
		deleteStmt = deleteStmt.Where(goqu.C(catalog.FieldID).Eq(id))
	}

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(catalog.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// tourRecord maps every stored field of the Tour to its column value, missing optional fields to NULL.
func tourRecord(tour catalog.Tour) (goqu.Record, error) {
	doc := catalog.DocumentFromTour(tour)
	record := goqu.Record{}

	for _, field := range catalog.TourFields() {
		value, present := doc[field]
		if !present {
			record[field] = nil
			continue
		}

		kind, _ := catalog.TourFieldKind(field)

		switch kind {
		case catalog.KindTextList:
			record[field] = goqu.L(castTextArray, pq.StringArray(tour.Images))

		case catalog.KindTimeList:
			startDates := make(pq.StringArray, 0, len(tour.StartDates))
			for _, startDate := range tour.StartDates {
				startDates = append(startDates, startDate.UTC().Format(time.RFC3339Nano))
			}
			record[field] = goqu.L(castTimeArray, startDates)

		case catalog.KindObject, catalog.KindObjectList:
			raw, err := columnJSON.MarshalToString(value)
			if err != nil {
				return nil, errors.Join(catalog.ErrBuildingQueryFailed, err)
			}
			record[field] = goqu.L(castJsonb, raw)

		default:
			record[field] = value
		}
	}

	return record, nil
}

/***** aggregation *****/

// pipelineBuilder nests one sub-select per stage. The current sort order is carried along
// until a group stage replaces the columns it refers to.
type pipelineBuilder struct {
	dialect goqu.DialectWrapper
	stmt    *goqu.SelectDataset
	cols    columnSet
	order   []exp.OrderedExpression
	depth   int
}

func (s CollectionStore) buildAggregateQuery(pipeline catalog.Pipeline) (sqlQueryString, error) {
	cols := tourColumns()
	dialect := goqu.Dialect(dialectPostgres)

	b := &pipelineBuilder{
		dialect: dialect,
		stmt:    dialect.From(s.tableName).Select(cols.identifiers()...),
		cols:    cols,
	}

	for _, stage := range pipeline.Stages() {
		if err := b.add(stage); err != nil {
			return "", err
		}
	}

	finalStmt := dialect.
		From(b.stmt.As(aliasRow)).
		Select(goqu.Cast(goqu.Func("json_strip_nulls", goqu.Func("row_to_json", goqu.I(aliasRow))), castText)).
		Order(b.order...)

	sqlQuery, _, toSQLErr := finalStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(catalog.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (b *pipelineBuilder) wrap(selects ...any) *goqu.SelectDataset {
	b.depth++

	return b.dialect.From(b.stmt.As(fmt.Sprintf(aliasStage, b.depth))).Select(selects...)
}

func (b *pipelineBuilder) add(stage catalog.Stage) error {
	switch s := stage.(type) {
	case catalog.MatchStage:
		where, err := whereExpressions(b.cols, s.Predicates)
		if err != nil {
			return err
		}
		b.stmt = b.wrap(goqu.Star()).Where(where...).Order(b.order...)

	case catalog.UnwindStage:
		return b.unwind(s.Field)

	case catalog.GroupStage:
		return b.group(s)

	case catalog.SortStage:
		b.order = orderExpressions(b.cols, s.Fields)
		b.stmt = b.wrap(goqu.Star()).Order(b.order...)

	case catalog.LimitStage:
		b.stmt = b.wrap(goqu.Star()).Order(b.order...)
		if s.N > 0 {
			b.stmt = b.stmt.Limit(uint(s.N))
		}

	default:
		return &catalog.QueryParseError{Reason: fmt.Sprintf("unsupported aggregation stage %T", stage)}
	}

	return nil
}

// unwind emits one row per list element. Rows without elements disappear.
func (b *pipelineBuilder) unwind(field string) error {
	kind, known := b.cols.kind(field)

	var elements exp.SQLFunctionExpression
	var elementKind columnKind

	switch {
	case known && kind == columnArray:
		elements, elementKind = goqu.Func("unnest", goqu.C(field)), columnScalar
	case known && kind == columnObjectList:
		elements, elementKind = goqu.Func("jsonb_array_elements", goqu.C(field)), columnObject
	default:
		return &catalog.QueryParseError{Param: field, Reason: "only list fields can be unwound"}
	}

	selects := make([]any, 0, len(b.cols.names))
	for _, name := range b.cols.names {
		if name == field {
			selects = append(selects, elements.As(field))
			continue
		}
		selects = append(selects, goqu.C(name))
	}

	b.stmt = b.wrap(selects...).Order(b.order...)
	b.cols = b.cols.with(field, elementKind)

	return nil
}

func (b *pipelineBuilder) group(stage catalog.GroupStage) error {
	keyAs := stage.KeyAs
	if keyAs == "" {
		keyAs = catalog.FieldID
	}

	key, err := b.groupKey(stage.Key)
	if err != nil {
		return err
	}

	grouped := columnSet{kinds: make(map[string]columnKind)}.with(keyAs, columnScalar)
	selects := []any{goqu.L("?", key).As(keyAs)}

	for _, acc := range stage.Accumulators {
		expression, kind, accErr := b.accumulator(acc)
		if accErr != nil {
			return accErr
		}

		selects = append(selects, expression.As(acc.As))
		grouped = grouped.with(acc.As, kind)
	}

	b.stmt = b.wrap(selects...).Having(goqu.COUNT(goqu.Star()).Gt(0))
	if stage.Key.Field != "" {
		b.stmt = b.stmt.GroupBy(key)
	}

	b.cols = grouped
	b.order = nil

	return nil
}

func (b *pipelineBuilder) groupKey(key catalog.GroupKey) (exp.Expression, error) {
	if key.Field == "" {
		return goqu.L(sqlNull), nil
	}

	if _, known := b.cols.kind(key.Field); !known {
		return goqu.L(sqlNull), nil
	}

	switch key.Part {
	case catalog.WholeValue:
		return goqu.C(key.Field), nil
	case catalog.Month:
		return goqu.L("CAST(EXTRACT(MONTH FROM ?) AS INTEGER)", goqu.C(key.Field)), nil
	case catalog.Year:
		return goqu.L("CAST(EXTRACT(YEAR FROM ?) AS INTEGER)", goqu.C(key.Field)), nil
	default:
		return nil, &catalog.QueryParseError{Param: key.Field, Reason: "unsupported date part " + string(key.Part)}
	}
}

func (b *pipelineBuilder) accumulator(acc catalog.Accumulator) (exp.Aliaseable, columnKind, error) {
	if acc.Op == catalog.Count {
		return goqu.COUNT(goqu.Star()), columnScalar, nil
	}

	var col exp.Expression = goqu.L(sqlNull)
	if _, known := b.cols.kind(acc.Field); known {
		col = goqu.C(acc.Field)
	}

	switch acc.Op {
	case catalog.Sum:
		return goqu.COALESCE(goqu.SUM(col), 0), columnScalar, nil
	case catalog.Avg:
		return goqu.Cast(goqu.AVG(col), castDouble), columnScalar, nil
	case catalog.Min:
		return goqu.MIN(col), columnScalar, nil
	case catalog.Max:
		return goqu.MAX(col), columnScalar, nil
	case catalog.Push:
		return goqu.L("COALESCE(json_agg(?) FILTER (WHERE ? IS NOT NULL), '[]'::json)", col, col), columnObjectList, nil
	default:
		return nil, 0, &catalog.QueryParseError{Param: acc.As, Reason: "unsupported accumulator " + string(acc.Op)}
	}
}
