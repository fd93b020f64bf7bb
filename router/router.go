// Package router implements the publish fan-out core (spec.md §4.H):
// given a PUBLISH's (sender, topic, payload, origin_qos), it looks up
// the subscription index, computes a per-subscriber delivered QoS,
// serializes a PUBLISH for each subscriber, writes it to that
// subscriber's registered stream, and records waiting_for_ack on the
// subscriber's session for QoS >= 1 deliveries.
package router

import (
	"github.com/wireq/mqttd/pktid"
	"github.com/wireq/mqttd/registry"
	"github.com/wireq/mqttd/session"
	"github.com/wireq/mqttd/store"
	"github.com/wireq/mqttd/topic"
	"github.com/wireq/mqttd/wire"
)

// Router is the shared fan-out engine. A single Router is created per
// broker instance and handed the collaborators it coordinates. Each
// one locks only around its own single operation, and Route never
// holds one of those locks while taking another. Per subscriber, Route
// performs them in the order SubscribersOf's snapshot read (once per
// publish), PktIDs.Gen, Streams.Send, Sessions.Get.
type Router struct {
	Index    *topic.Index
	Sessions *session.Store
	PktIDs   *pktid.Generator
	Streams  *registry.Registry
	Retained store.Store
}

// New creates a Router over the given collaborators.
func New(idx *topic.Index, sessions *session.Store, ids *pktid.Generator, streams *registry.Registry, retained store.Store) *Router {
	return &Router{Index: idx, Sessions: sessions, PktIDs: ids, Streams: streams, Retained: retained}
}

// minQoS implements spec.md §9's mandated `min(origin_qos, sub_qos)`
// downgrade, deviating from the source's pass-through of sub_qos (see
// SPEC_FULL.md §9).
func minQoS(a, b wire.QoS) wire.QoS {
	if a < b {
		return a
	}
	return b
}

// Route performs the four-step fan-out described in spec.md §4.H. A
// subscriber losing its stream between the snapshot and delivery only
// skips that one recipient (spec.md §4.H.c). Packet-id exhaustion is
// different: the id space is a single shared resource, so spec.md
// §4.H.b/§7 treat it as fatal to the containing publish, not scoped to
// one subscriber. Route reports it as an error and stops the fan-out;
// the caller closes the publishing connection.
func (r *Router) Route(senderClientID, topicName string, payload []byte, originQoS wire.QoS, retain bool) (Result, error) {
	if retain {
		r.Retained.Save(topicName, store.RetainedMessage{Topic: topicName, QoS: originQoS, Payload: payload})
	}

	subs := r.Index.SubscribersOf(topicName)

	var res Result
	for _, sub := range subs {
		if sub.ClientID == senderClientID {
			continue
		}
		res.Attempted++

		deliveredQoS := minQoS(originQoS, sub.QoS)

		var pktID uint16
		hasID := false
		if deliveredQoS > wire.QoS0 {
			id, err := r.PktIDs.Gen()
			if err != nil {
				return res, ErrPublishOutOfPktIds
			}
			pktID = id
			hasID = true
		}

		pkt := &wire.PublishPacket{
			QoS:       deliveredQoS,
			TopicName: topicName,
			PktID:     pktID,
			HasID:     hasID,
			Payload:   payload,
		}

		encoded, err := wire.Encode(pkt)
		if err != nil {
			if hasID {
				r.PktIDs.Release(pktID)
			}
			res.Failures = append(res.Failures, Failure{ClientID: sub.ClientID, Err: err})
			continue
		}

		if err := r.Streams.Send(sub.ClientID, encoded); err != nil {
			// No sink registered: skip delivery, per spec.md §4.H.c.
			// pending_tx enqueue is optional and not performed here.
			if hasID {
				r.PktIDs.Release(pktID)
			}
			continue
		}

		if deliveredQoS > wire.QoS0 {
			if sess, ok := r.Sessions.Get(sub.ClientID); ok {
				sess.AddWaitingForAck(pktID, session.PendingMessage{QoS: deliveredQoS, Topic: topicName, Payload: payload})
			}
		}

		res.Delivered++
	}

	return res, nil
}

// Result summarizes one Route call's outcome.
type Result struct {
	Attempted int
	Delivered int
	Failures  []Failure
}

// Failure names one subscriber whose delivery did not complete.
type Failure struct {
	ClientID string
	Err      error
}
