package command

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MessagesHandled counts processed messages by outcome (ok, error, panic).
var MessagesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "baro",
	Subsystem: "router",
	Name:      "messages_handled_total",
	Help:      "Total chat messages processed, by outcome.",
}, []string{"outcome"})

// IntentsResolved counts resolved intents by type (transaction, command, none).
var IntentsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "baro",
	Subsystem: "router",
	Name:      "intents_resolved_total",
	Help:      "Total intents resolved from chat messages, by intent type.",
}, []string{"type"})

// ConfirmationsResolved counts pending-action resolutions by outcome
// (confirmed, cancelled, passthrough).
var ConfirmationsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "baro",
	Subsystem: "router",
	Name:      "confirmations_resolved_total",
	Help:      "Total destructive-action confirmations resolved, by outcome.",
}, []string{"outcome"})
