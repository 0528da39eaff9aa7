package statemachine

import (
	"errors"
	"pizza-franchise-api/models"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor string // "pipeline", "factory"
}

const (
	// ActorPipeline is the order pipeline itself (pricing, submission)
	ActorPipeline = "pipeline"
	// ActorFactory is the external fulfillment collaborator's verdict
	ActorFactory = "factory"
)

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Pipeline prices a draft from the current menu
	{From: models.StatusDraft, To: models.StatusPriced, Actor: ActorPipeline},
	// Pipeline hands the priced order to the factory
	{From: models.StatusPriced, To: models.StatusSubmitted, Actor: ActorPipeline},
	// Factory accepts and returns a fulfillment token
	{From: models.StatusSubmitted, To: models.StatusFulfilled, Actor: ActorFactory},
	// Factory error, timeout, or non-200 response
	{From: models.StatusSubmitted, To: models.StatusRejected, Actor: ActorFactory},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor string
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.OrderStatus, actor string) error {
	key := transitionKey{From: from, To: to, Actor: actor}
	if transitionMap[key] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " to " + string(to) +
			" is not allowed for actor '" + actor + "'",
	)
}

// IsTerminal reports whether an order can change state at all. Fulfilled
// and rejected orders are immutable.
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}
