// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

// Package service implements the attendee-reply reconciliation logic of the
// scheduling reply service.
package service

// ServiceConfig holds the configurable behavior of the reconciliation
// services.
type ServiceConfig struct {
	// MaxAttendeesPerEvent caps the attendee list size of one event.
	MaxAttendeesPerEvent int
	// MaxExtendedProperties caps the extended property count of one event.
	MaxExtendedProperties int
}

// DefaultServiceConfig returns the default limits.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxAttendeesPerEvent:  1000,
		MaxExtendedProperties: 100,
	}
}
