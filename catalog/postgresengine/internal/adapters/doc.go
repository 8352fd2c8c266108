// Package adapters lets the tour postgres engine run on pgxpool.Pool, sql.DB or sqlx.DB.
//
// Each adapter only needs to execute a plain SQL string, because the engine renders
// every statement with goqu before handing it over.
package adapters
