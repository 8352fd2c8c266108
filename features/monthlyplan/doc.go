// Package monthlyplan implements the Monthly Plan query use case.
//
// For a given year it reports, per month, how many tour starts are scheduled and which tours start.
// The busiest month comes first and at most twelve months are returned.
package monthlyplan
