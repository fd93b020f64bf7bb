package broker

import (
	"bufio"
	"errors"
	"io"
	"net"

	"github.com/wireq/mqttd/session"
	"github.com/wireq/mqttd/topic"
	"github.com/wireq/mqttd/wire"
)

// ServeConn drives one accepted connection through the state machine
// in spec.md §4.I: AwaitingConnect -> Connected -> Closed. It blocks
// until the connection is closed, matching spec.md §5's "one
// long-running task per accepted connection."
func (b *Broker) ServeConn(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	clientID, err := b.awaitConnect(conn, reader)
	if err != nil {
		return
	}

	b.serveConnected(conn, reader, clientID)
}

// awaitConnect implements the AwaitingConnect state's three
// transitions. On success it has already registered the stream and
// sent CONNACK(Accepted).
func (b *Broker) awaitConnect(conn net.Conn, reader *bufio.Reader) (string, error) {
	pkt, err := wire.ReadPacket(reader)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", err
		}
		b.Log.Warn("decode error before CONNECT, closing connection", "remote", conn.RemoteAddr(), "err", err)
		// Only InvalidProtocol gets a reply; every other CONNECT-stage
		// decode error closes without one (spec.md §7).
		if errors.Is(err, wire.ErrInvalidProtocol) {
			nak, encErr := wire.Encode(&wire.ConnAckPacket{SessionPresent: false, ReturnCode: wire.UnacceptableProtocolVer})
			if encErr == nil {
				_, _ = conn.Write(nak)
			}
		}
		return "", err
	}

	connectPkt, ok := pkt.(*wire.ConnectPacket)
	if !ok {
		// any other packet type -> Closed, no response.
		return "", ErrNotConnectPacket
	}

	_, sessionPresent := b.Sessions.GetOrCreate(connectPkt.ClientID, connectPkt.CleanSession)
	b.Streams.Register(connectPkt.ClientID, conn)

	ack, err := wire.Encode(&wire.ConnAckPacket{SessionPresent: sessionPresent, ReturnCode: wire.Accepted})
	if err != nil {
		return "", err
	}
	if err := b.Streams.Send(connectPkt.ClientID, ack); err != nil {
		return "", err
	}

	if err := b.Hooks.OnConnect(connectPkt.ClientID); err != nil {
		b.Log.Warn("hook rejected connect", "client_id", connectPkt.ClientID, "err", err)
	}
	b.Log.Info("client connected", "client_id", connectPkt.ClientID, "session_present", sessionPresent, "remote", conn.RemoteAddr())

	return connectPkt.ClientID, nil
}

// serveConnected implements every Connected-state transition in
// spec.md §4.I until a terminating event moves the connection to
// Closed. Each packet re-fetches the session from the store rather
// than closing over one looked up at CONNECT time, so a session
// dropped out from under the connection (e.g. by another connection
// with the same client_id dropping its clean session on teardown or
// DISCONNECT) surfaces as NoSession here
// instead of silently operating on a stale pointer.
func (b *Broker) serveConnected(conn net.Conn, reader *bufio.Reader, clientID string) {
	for {
		pkt, err := wire.ReadPacket(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				b.Log.Warn("decode error, closing connection", "client_id", clientID, "err", err)
			}
			b.teardown(conn, clientID)
			return
		}

		sess, ok := b.Sessions.Get(clientID)
		if !ok {
			b.Log.Error("no session for connection", "client_id", clientID, "err", session.ErrNoSession)
			b.teardown(conn, clientID)
			return
		}

		if !b.handlePacket(conn, clientID, sess, pkt) {
			return
		}
	}
}

// handlePacket dispatches one Connected-state packet and reports
// whether the connection should keep running.
func (b *Broker) handlePacket(conn net.Conn, clientID string, sess *session.Session, pkt wire.Packet) bool {
	switch p := pkt.(type) {
	case *wire.PublishPacket:
		if !b.handlePublish(clientID, p) {
			b.teardown(conn, clientID)
			return false
		}
	case *wire.PubAckPacket:
		b.handlePubAck(sess, p)
	case *wire.SubscribePacket:
		b.handleSubscribe(clientID, sess, p)
	case *wire.UnsubscribePacket:
		b.handleUnsubscribe(clientID, sess, p)
	case *wire.PingReqPacket:
		b.sendOrLog(clientID, &wire.PingRespPacket{})
	case *wire.DisconnectPacket:
		if sess.CleanSession {
			b.Sessions.Drop(clientID)
			b.Index.UnsubscribeAll(clientID)
		}
		b.Streams.UnregisterIf(clientID, conn)
		b.Hooks.OnDisconnect(clientID)
		b.Log.Info("client disconnected", "client_id", clientID)
		return false
	default:
		// A decodable but unexpected packet type in this state; treat
		// like any other protocol violation per spec.md §4.I's
		// "any decode error -> Closed".
		b.teardown(conn, clientID)
		return false
	}
	return true
}

// handlePublish routes a PUBLISH and reports whether the connection
// should keep running. Packet-id exhaustion during fan-out is fatal to
// the publishing connection (spec.md §4.H.b, §7: "closes the current
// connection"), so no PubAck/PubRec is sent in that case.
func (b *Broker) handlePublish(clientID string, p *wire.PublishPacket) bool {
	if err := b.Hooks.OnPublish(clientID, p.TopicName, p.Payload); err != nil {
		b.Log.Warn("publish rate limited", "client_id", clientID, "topic", p.TopicName, "err", err)
	}

	res, err := b.Router.Route(clientID, p.TopicName, p.Payload, p.QoS, p.Retain)
	for _, f := range res.Failures {
		b.Log.Error("fan-out delivery failed", "client_id", f.ClientID, "topic", p.TopicName, "err", f.Err)
	}
	if err != nil {
		b.Log.Error("publish failed, closing connection", "client_id", clientID, "topic", p.TopicName, "err", err)
		return false
	}

	switch p.QoS {
	case wire.QoS1:
		b.sendOrLog(clientID, &wire.PubAckPacket{PktID: p.PktID})
	case wire.QoS2:
		b.sendOrLog(clientID, &wire.PubRecPacket{PktID: p.PktID})
	}
	return true
}

func (b *Broker) handlePubAck(sess *session.Session, p *wire.PubAckPacket) {
	b.PktIDs.Release(p.PktID)
	sess.ResolveWaitingForAck(p.PktID)
}

func (b *Broker) handleSubscribe(clientID string, sess *session.Session, p *wire.SubscribePacket) {
	codes := make([]wire.SubAckCode, 0, len(p.Subscriptions))
	for _, sub := range p.Subscriptions {
		if err := topic.ValidateFilter(sub.TopicFilter); err != nil {
			codes = append(codes, wire.SubAckFailure)
			continue
		}

		sess.SetSubscription(sub.TopicFilter, sub.RequestedQoS)
		b.Index.Subscribe(clientID, sub.TopicFilter, sub.RequestedQoS)
		if err := b.Hooks.OnSubscribe(clientID, sub.TopicFilter, sub.RequestedQoS); err != nil {
			b.Log.Warn("subscribe hook error", "client_id", clientID, "filter", sub.TopicFilter, "err", err)
		}

		codes = append(codes, subAckCodeFor(sub.RequestedQoS))
	}

	b.sendOrLog(clientID, &wire.SubAckPacket{PktID: p.PktID, ReturnCodes: codes})
}

// handleUnsubscribe applies the unsubscribe to the subscription index
// and the session (spec.md §4.F). The connection state machine table
// in spec.md §4.I does not list an UNSUBSCRIBE transition and this
// repo's wire encoder does not implement UNSUBACK (spec.md §4.C's
// encoder list omits it), so this only performs the bookkeeping side
// effect and sends no reply — an explicit, documented extension of the
// state machine rather than a silent no-op (design-level, as spec.md
// §4.C allows: "implementers may extend").
func (b *Broker) handleUnsubscribe(clientID string, sess *session.Session, p *wire.UnsubscribePacket) {
	for _, filter := range p.TopicFilters {
		sess.RemoveSubscription(filter)
		b.Index.Unsubscribe(clientID, filter)
	}
}

func subAckCodeFor(qos wire.QoS) wire.SubAckCode {
	switch qos {
	case wire.QoS0:
		return wire.SubAckMaxQoS0
	case wire.QoS1:
		return wire.SubAckMaxQoS1
	default:
		return wire.SubAckMaxQoS2
	}
}

// sendOrLog encodes and sends pkt to clientID's registered stream,
// logging rather than propagating a failure: a broken outbound stream
// is discovered on the connection's own next read, which tears the
// connection down through the normal decode-error path.
func (b *Broker) sendOrLog(clientID string, pkt wire.Packet) {
	encoded, err := wire.Encode(pkt)
	if err != nil {
		b.Log.Error("encode failed", "client_id", clientID, "err", err)
		return
	}
	if err := b.Streams.Send(clientID, encoded); err != nil {
		b.Log.Error("send failed", "client_id", clientID, "err", err)
	}
}

// teardown implements the shared cleanup for "Connected | any decode
// error -> Closed" and "any | peer EOF / I/O error -> Closed": drop a
// clean_session session and its subscription-index entries (invariant
// I1: an index entry never outlives its session), and unregister the
// stream only if it still belongs to this connection — a reconnect on
// a new conn may already have registered a fresh sink for clientID,
// and an unconditional Unregister here would clobber it.
func (b *Broker) teardown(conn net.Conn, clientID string) {
	b.Streams.UnregisterIf(clientID, conn)
	if sess, ok := b.Sessions.Get(clientID); ok && sess.CleanSession {
		b.Sessions.Drop(clientID)
		b.Index.UnsubscribeAll(clientID)
	}
}
