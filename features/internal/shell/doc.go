// Package shell holds the observability plumbing shared by the query handlers under features/.
package shell
