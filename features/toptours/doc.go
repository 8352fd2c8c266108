// Package toptours implements the Top Tours query use case, the "top 5 cheap" alias of a tour search.
//
// The query fixes limit, sort and fields: the five best rated tours, cheaper first on equal rating,
// with a short set of fields. Filter and page parameters of the caller are kept.
package toptours
