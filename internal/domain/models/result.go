// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package models

// MutationKind distinguishes tracked event mutations.
type MutationKind string

const (
	MutationCreated MutationKind = "created"
	MutationUpdated MutationKind = "updated"
)

// Mutation records one successful event-level storage mutation.
type Mutation struct {
	Kind     MutationKind `json:"kind"`
	Original *Event       `json:"original,omitempty"` // nil for creations
	Updated  *Event       `json:"updated"`
}

// ReconciliationResult accumulates all mutations of one reconciliation run in
// call order. It is append-only; the outbound notification dispatcher
// consumes it after processing and relies on the ordering.
type ReconciliationResult struct {
	mutations []Mutation
}

// NewReconciliationResult returns an empty result accumulator.
func NewReconciliationResult() *ReconciliationResult {
	return &ReconciliationResult{}
}

// TrackCreation appends a creation mutation.
func (r *ReconciliationResult) TrackCreation(created *Event) {
	r.mutations = append(r.mutations, Mutation{Kind: MutationCreated, Updated: created})
}

// TrackUpdate appends an update mutation with before and after snapshots.
func (r *ReconciliationResult) TrackUpdate(original, updated *Event) {
	r.mutations = append(r.mutations, Mutation{Kind: MutationUpdated, Original: original, Updated: updated})
}

// Mutations returns all tracked mutations in call order.
func (r *ReconciliationResult) Mutations() []Mutation {
	return r.mutations
}

// Empty reports whether the run produced no mutations.
func (r *ReconciliationResult) Empty() bool {
	return len(r.mutations) == 0
}

// Creations returns the created event snapshots in call order.
func (r *ReconciliationResult) Creations() []*Event {
	var creations []*Event
	for _, m := range r.mutations {
		if m.Kind == MutationCreated {
			creations = append(creations, m.Updated)
		}
	}
	return creations
}

// Updates returns the update mutations in call order.
func (r *ReconciliationResult) Updates() []Mutation {
	var updates []Mutation
	for _, m := range r.mutations {
		if m.Kind == MutationUpdated {
			updates = append(updates, m)
		}
	}
	return updates
}
