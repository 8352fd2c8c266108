package toptours

import (
	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

const (
	aliasLimit  = "5"
	aliasSort   = "-ratingsAverage,price"
	aliasFields = "name,price,ratingsAverage,summary,difficulty"
)

// AliasParams returns the caller's Params with limit, sort and fields overridden by the alias.
// The given Params are not modified.
func AliasParams(params catalog.Params) catalog.Params {
	return params.
		With(catalog.ParamLimit, aliasLimit).
		With(catalog.ParamSort, aliasSort).
		With(catalog.ParamFields, aliasFields)
}
