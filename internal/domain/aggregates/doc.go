// Package aggregates defines domain aggregate contracts and the shared error
// taxonomy. Implementations live in internal/data/aggregates.
package aggregates
