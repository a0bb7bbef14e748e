// Package aggregates defines the error contract shared by the tracking
// core's write paths. Infrastructure implementations live under
// internal/data/aggregates.
package aggregates
