/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package session implements the hard core of the client: the
// connection to a Yaks server, login/logout, the correlation-id
// registry that matches responses to in-flight requests, the single
// background receiver, and callback dispatch for NOTIFY and EVAL
// messages. See spec.md §4.5 and §5.
//
// Grounded on the teacher's client/websocketRouter/client.go routine()
// (single-reader dispatch loop, error-count handling, protocol-keyed
// handoff to registered listeners) adapted from websocket/JSON framing
// to this protocol's VLE/message framing over a plain net.Conn, and on
// ingest/auth.go for the login/failure shape.
package session

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/minio/highwayhash"

	"github.com/yaksio/yaks-go/framer"
	"github.com/yaksio/yaks-go/internal/ylog"
	"github.com/yaksio/yaks-go/message"
	"github.com/yaksio/yaks-go/pathsel"
	"github.com/yaksio/yaks-go/value"
	"github.com/yaksio/yaks-go/yerr"
)

// State is the Session's connection state machine (spec.md §4.8):
// Disconnected -> Connecting -> Authenticated -> Closing -> Disconnected.
type State int

const (
	Disconnected State = iota
	Connecting
	Authenticated
	Closing
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Authenticated:
		return "Authenticated"
	case Closing:
		return "Closing"
	default:
		return "Disconnected"
	}
}

// CompressionMode selects the optional transport-level compression
// layered below the message framer (spec.md's Non-goals exclude a
// different transport entirely; this is compression of the native
// one, see SPEC_FULL.md §10.4).
type CompressionMode int

const (
	CompressNone CompressionMode = iota
	CompressSnappy
)

// EvalFunc is a server-side computation registered at a path. It
// receives the invoking selector and its parsed query dict and
// returns the Value to answer with.
type EvalFunc func(sel pathsel.Selector, query map[string]interface{}) (value.Value, error)

// NotifyListener receives the batch of Changes delivered by one NOTIFY
// message for a subscription.
type NotifyListener func(changes []message.Change)

// Config configures a Session. Zero values are replaced with the
// defaults documented on each field.
type Config struct {
	// DialTimeout bounds Dial's TCP connect. Default 10s.
	DialTimeout time.Duration
	// RequestTimeout is the deadline applied to a request whose
	// context carries none of its own. Default 30s.
	RequestTimeout time.Duration
	// Compression selects the transport layered below the framer.
	Compression CompressionMode
	// Executor, if set, runs subscription and eval callbacks off the
	// receiver goroutine (see spec.md §5). If nil, callbacks run
	// inline on the receiver and must be fast.
	Executor Executor
	// Logger receives diagnostic output; defaults to ylog.NewDefault().
	Logger ylog.Logger
}

func (c Config) withDefaults() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = ylog.NewDefault()
	}
	return c
}

// response is what the receiver hands back to a caller blocked on a
// correlation slot: either the matched Message or the error it
// resolved to (a decoded ERROR, a transport failure, or a timeout).
type response struct {
	msg *message.Message
	err error
}

// subscription is one entry in the Session's subscription registry.
// cancelling marks the window between Unsubscribe's UNSUB send and its
// OK ack, during which an in-flight NOTIFY is dropped silently
// (spec.md §4.8's Subscription state machine: Cancelling -> Removed).
type subscription struct {
	listener   NotifyListener
	cancelling bool
}

// evalReg is one entry in the Session's eval registry, keyed by the
// absolute path the function was registered at. removing marks the
// window between UnregisterEval's send and its ack, during which an
// incoming EVAL invocation is answered with ERROR NOT_FOUND (spec.md
// §4.8's eval registration state machine: Removing -> Removed).
type evalReg struct {
	fn       EvalFunc
	removing bool
}

// Session owns one connection to a Yaks server: the framer, the
// correlation registry, the subscription and eval registries, and the
// single background goroutine that reads frames off the wire.
type Session struct {
	id  uuid.UUID
	cfg Config
	log ylog.Logger
	fr  *framer.Framer

	credKey []byte // random, process-local; never leaves the client

	mtx     sync.Mutex
	state   State
	pending map[uint64]chan response
	subs    map[string]*subscription
	evals   map[string]*evalReg

	recvDone           chan struct{}
	closeTransportOnce sync.Once
	closeTransportErr  error
	userCloseOnce      sync.Once
}

// Dial opens a TCP connection to addr and returns a Session in state
// Connecting. Callers must still call Login before issuing any other
// request.
func Dial(ctx context.Context, addr string, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return newSession(conn, cfg), nil
}

// New wraps an already-established connection (e.g. one dialed with a
// non-default net.Dialer, or a test net.Pipe() half) in a Session.
func New(conn net.Conn, cfg Config) *Session {
	return newSession(conn, cfg.withDefaults())
}

func newSession(conn net.Conn, cfg Config) *Session {
	var fr *framer.Framer
	if cfg.Compression == CompressSnappy {
		fr = framer.NewCompressed(conn)
	} else {
		fr = framer.New(conn)
	}
	key := make([]byte, 32)
	_, _ = cryptorand.Read(key)
	s := &Session{
		id:       uuid.New(),
		cfg:      cfg,
		log:      cfg.Logger,
		fr:       fr,
		credKey:  key,
		state:    Connecting,
		pending:  make(map[uint64]chan response),
		subs:     make(map[string]*subscription),
		evals:    make(map[string]*evalReg),
		recvDone: make(chan struct{}),
	}
	go s.receiveLoop()
	return s
}

// ID returns a per-process diagnostic identifier for this Session. It
// never appears on the wire.
func (s *Session) ID() string { return s.id.String() }

// State returns the Session's current connection state.
func (s *Session) State() State {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.state
}

// IsConnected reports whether the Session is logged in and usable.
func (s *Session) IsConnected() bool {
	return s.State() == Authenticated
}

func (s *Session) setState(st State) {
	s.mtx.Lock()
	s.state = st
	s.mtx.Unlock()
}

// withDeadline returns ctx unchanged (wrapped only for a cancel func)
// if it already carries a deadline, otherwise applies the Session's
// configured RequestTimeout.
func (s *Session) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.RequestTimeout)
}

// registerPending draws a 32-bit random corr_id, redrawing on
// collision with an in-flight id (spec.md §4.5), and registers its
// one-shot completion slot before the caller writes to the wire.
func (s *Session) registerPending() (uint64, chan response) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for {
		id := uint64(rand.Uint32())
		if id == 0 {
			continue
		}
		if _, exists := s.pending[id]; exists {
			continue
		}
		ch := make(chan response, 1)
		s.pending[id] = ch
		return id, ch
	}
}

func (s *Session) dropPending(id uint64) {
	s.mtx.Lock()
	delete(s.pending, id)
	s.mtx.Unlock()
}

// roundTrip allocates a corr_id, builds the request with it, writes
// the frame, and blocks until the matching response arrives or the
// deadline expires. build's corr_id argument and the registered slot
// always agree, so a late response can only ever match a slot that
// either already fired or was already removed.
func (s *Session) roundTrip(ctx context.Context, build func(corrID uint64) (*message.Message, error)) (*message.Message, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	corrID, respCh := s.registerPending()
	m, err := build(corrID)
	if err != nil {
		s.dropPending(corrID)
		return nil, err
	}

	buf := message.Encode(make([]byte, 0, 64), m)
	if err := s.fr.WriteFrame(buf); err != nil {
		s.dropPending(corrID)
		return nil, err
	}

	select {
	case r := <-respCh:
		return r.msg, r.err
	case <-ctx.Done():
		s.dropPending(corrID)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, yerr.ErrTimeout
		}
		return nil, ctx.Err()
	}
}

// failAll completes every currently-registered slot with err. Used
// when the transport dies or the Session is closed; it is safe to
// call more than once (a second call simply finds nothing pending).
func (s *Session) failAll(err error) {
	s.mtx.Lock()
	pending := s.pending
	s.pending = make(map[uint64]chan response)
	s.mtx.Unlock()
	for _, ch := range pending {
		select {
		case ch <- response{err: err}:
		default:
		}
	}
}

func (s *Session) closeTransport() error {
	s.closeTransportOnce.Do(func() {
		s.closeTransportErr = s.fr.Close()
	})
	return s.closeTransportErr
}

// Close tears the Session down unconditionally: closes the
// connection, waits for the receiver goroutine to exit, and fails any
// still-pending requests with yerr.ErrClosed. It is idempotent and
// safe to call even if the receiver already exited on its own (e.g.
// after a read error). Logout calls this after sending LOGOUT;
// callers that want a clean server-side logout should prefer Logout.
func (s *Session) Close() error {
	var result error
	s.userCloseOnce.Do(func() {
		s.setState(Closing)
		if err := s.closeTransport(); err != nil && !errors.Is(err, net.ErrClosed) {
			result = multierror.Append(result, err)
		}
		<-s.recvDone
		s.failAll(yerr.ErrClosed)
		s.setState(Disconnected)
	})
	return result
}

// Login sends LOGIN (with the "yaks.login" property if user and pass
// are both non-empty) and waits for OK. An ERROR reply with errno
// UNAUTHORIZED, or a timeout, both surface as yerr.ErrAuthFailed.
func (s *Session) Login(ctx context.Context, user, pass string) error {
	if user != "" && pass != "" {
		fp := highwayhash.Sum128([]byte(user+":"+pass), s.credKey)
		s.log.Debug("login attempt", "user", user, "cred_fp", hex.EncodeToString(fp[:]))
	}
	resp, err := s.roundTrip(ctx, func(corrID uint64) (*message.Message, error) {
		return message.NewLogin(corrID, user, pass), nil
	})
	if err != nil {
		s.setState(Disconnected)
		var serr *yerr.ServerError
		if errors.As(err, &serr) && serr.Errno == yerr.ErrnoUnauthorized {
			return yerr.ErrAuthFailed
		}
		if errors.Is(err, yerr.ErrTimeout) {
			return yerr.ErrAuthFailed
		}
		return err
	}
	if resp.Code != message.OK {
		s.setState(Disconnected)
		return yerr.ErrUnexpectedMessage
	}
	s.setState(Authenticated)
	return nil
}

// Logout sends LOGOUT (best-effort, bounded by ctx) and then
// unconditionally closes the Session via Close.
func (s *Session) Logout(ctx context.Context) error {
	s.mtx.Lock()
	authed := s.state == Authenticated
	s.mtx.Unlock()

	var sendErr error
	if authed {
		_, sendErr = s.roundTrip(ctx, func(corrID uint64) (*message.Message, error) {
			return message.NewLogout(corrID), nil
		})
	}
	closeErr := s.Close()
	if sendErr != nil {
		return sendErr
	}
	return closeErr
}

// OpenWorkspace performs the WORKSPACE handshake for path and returns
// the server-assigned workspace id (carried in OK's body, per
// SPEC_FULL.md's resolution of the wsid/sub_id Open Question).
func (s *Session) OpenWorkspace(ctx context.Context, path string) (string, error) {
	resp, err := s.roundTrip(ctx, func(corrID uint64) (*message.Message, error) {
		return message.NewWorkspace(corrID, path), nil
	})
	if err != nil {
		return "", err
	}
	if resp.Code != message.OK {
		return "", yerr.ErrUnexpectedMessage
	}
	return resp.GetOKBody()
}

// Put sends PUT for (path, v) under wsid.
func (s *Session) Put(ctx context.Context, wsid, path string, v value.Value) error {
	resp, err := s.roundTrip(ctx, func(corrID uint64) (*message.Message, error) {
		return message.NewPut(corrID, wsid, path, v)
	})
	if err != nil {
		return err
	}
	if resp.Code != message.OK {
		return yerr.ErrUnexpectedMessage
	}
	return nil
}

// Update is permanently yerr.ErrNotImplemented; see spec.md §4.6 and
// SPEC_FULL.md's Open Question decision. No bytes reach the wire.
func (s *Session) Update(ctx context.Context, wsid, path string, v value.Value) error {
	return yerr.ErrNotImplemented
}

// Get sends GET for selector under wsid and returns the raw
// (path, value) pairs VALUES carried back.
func (s *Session) Get(ctx context.Context, wsid, selector string) ([]message.KeyValue, error) {
	resp, err := s.roundTrip(ctx, func(corrID uint64) (*message.Message, error) {
		return message.NewGet(corrID, wsid, selector), nil
	})
	if err != nil {
		return nil, err
	}
	if resp.Code != message.VALUES {
		return nil, yerr.ErrUnexpectedMessage
	}
	return resp.GetValues()
}

// Remove sends DELETE for path under wsid.
func (s *Session) Remove(ctx context.Context, wsid, path string) error {
	resp, err := s.roundTrip(ctx, func(corrID uint64) (*message.Message, error) {
		return message.NewDelete(corrID, wsid, path), nil
	})
	if err != nil {
		return err
	}
	if resp.Code != message.OK {
		return yerr.ErrUnexpectedMessage
	}
	return nil
}

// Subscribe sends SUB for selector under wsid and, once acked,
// registers listener under the server-assigned subscription id
// (carried in OK's body). Until Subscribe returns, no NOTIFY for this
// subscription can be delivered (the server has not yet acked it).
func (s *Session) Subscribe(ctx context.Context, wsid, selector string, listener NotifyListener) (string, error) {
	resp, err := s.roundTrip(ctx, func(corrID uint64) (*message.Message, error) {
		return message.NewSub(corrID, wsid, selector), nil
	})
	if err != nil {
		return "", err
	}
	if resp.Code != message.OK {
		return "", yerr.ErrUnexpectedMessage
	}
	subID, err := resp.GetOKBody()
	if err != nil {
		return "", err
	}
	s.mtx.Lock()
	s.subs[subID] = &subscription{listener: listener}
	s.mtx.Unlock()
	return subID, nil
}

// Unsubscribe marks subID Cancelling (so a racing in-flight NOTIFY is
// dropped, not delivered), sends UNSUB, and removes the registration
// once acked.
func (s *Session) Unsubscribe(ctx context.Context, wsid, subID string) error {
	s.mtx.Lock()
	if sub, ok := s.subs[subID]; ok {
		sub.cancelling = true
	}
	s.mtx.Unlock()

	resp, err := s.roundTrip(ctx, func(corrID uint64) (*message.Message, error) {
		return message.NewUnsub(corrID, wsid, subID), nil
	})
	if err != nil {
		return err
	}
	if resp.Code != message.OK {
		return yerr.ErrUnexpectedMessage
	}
	s.mtx.Lock()
	delete(s.subs, subID)
	s.mtx.Unlock()
	return nil
}

// RegisterEval sends the EVAL registration for path under wsid and,
// once acked, stores fn so a later server-sent EVAL invocation for
// this path is answered by it.
func (s *Session) RegisterEval(ctx context.Context, wsid, path string, fn EvalFunc) error {
	resp, err := s.roundTrip(ctx, func(corrID uint64) (*message.Message, error) {
		return message.NewEvalRegister(corrID, wsid, path), nil
	})
	if err != nil {
		return err
	}
	if resp.Code != message.OK {
		return yerr.ErrUnexpectedMessage
	}
	s.mtx.Lock()
	s.evals[path] = &evalReg{fn: fn}
	s.mtx.Unlock()
	return nil
}

// UnregisterEval marks path Removing (so a racing invocation is
// answered ERROR NOT_FOUND rather than dispatched), sends the EVAL
// unregistration tombstone, and removes the registration once acked.
func (s *Session) UnregisterEval(ctx context.Context, wsid, path string) error {
	s.mtx.Lock()
	if reg, ok := s.evals[path]; ok {
		reg.removing = true
	}
	s.mtx.Unlock()

	resp, err := s.roundTrip(ctx, func(corrID uint64) (*message.Message, error) {
		return message.NewEvalUnregister(corrID, wsid, path), nil
	})
	if err != nil {
		return err
	}
	if resp.Code != message.OK {
		return yerr.ErrUnexpectedMessage
	}
	s.mtx.Lock()
	delete(s.evals, path)
	s.mtx.Unlock()
	return nil
}

// AdminAddStorage and AdminRemoveStorage back the admin package's thin
// wrapper; see message.NewAdminAddStorage/NewAdminRemoveStorage and
// spec.md §4.7.
func (s *Session) AdminAddStorage(ctx context.Context, id string, props map[string]string) error {
	resp, err := s.roundTrip(ctx, func(corrID uint64) (*message.Message, error) {
		return message.NewAdminAddStorage(corrID, id, props), nil
	})
	if err != nil {
		return err
	}
	if resp.Code != message.OK {
		return yerr.ErrUnexpectedMessage
	}
	return nil
}

func (s *Session) AdminRemoveStorage(ctx context.Context, id string) error {
	resp, err := s.roundTrip(ctx, func(corrID uint64) (*message.Message, error) {
		return message.NewAdminRemoveStorage(corrID, id), nil
	})
	if err != nil {
		return err
	}
	if resp.Code != message.OK {
		return yerr.ErrUnexpectedMessage
	}
	return nil
}

// runCallback dispatches fn to the configured Executor, or runs it
// inline if none is set. Either way a recovered panic is logged, not
// propagated: the receiver goroutine must never die because of user
// code (spec.md §5, §7).
func (s *Session) runCallback(fn func()) {
	wrapped := func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("callback panic recovered", "panic", r)
			}
		}()
		fn()
	}
	if s.cfg.Executor != nil {
		s.cfg.Executor.Submit(wrapped)
		return
	}
	wrapped()
}

// receiveLoop is the Session's single reader. It owns the framer's
// read half exclusively; every write goes through roundTrip/replyError
// /replyValues, which call Framer.WriteFrame directly (it serializes
// internally), so reads and writes never contend on the same mutex.
func (s *Session) receiveLoop() {
	defer close(s.recvDone)
	for {
		buf, err := s.fr.ReadFrame()
		if err != nil {
			if err != io.EOF {
				s.log.Error("read error, closing session", "err", err)
			}
			failErr := yerr.ErrConnectionLost
			if s.State() == Closing {
				failErr = yerr.ErrClosed
			}
			s.setState(Disconnected)
			s.failAll(failErr)
			s.closeTransport()
			return
		}
		m, err := message.Decode(buf)
		if err != nil {
			s.log.Error("malformed message, closing session", "err", err)
			s.setState(Disconnected)
			s.failAll(yerr.ErrConnectionLost)
			s.closeTransport()
			return
		}
		s.dispatch(m)
	}
}

func (s *Session) dispatch(m *message.Message) {
	switch m.Code {
	case message.OK, message.VALUES, message.ERROR:
		s.completeOrDrop(m)
	case message.NOTIFY:
		s.handleNotify(m)
	case message.EVAL:
		s.handleEval(m)
	default:
		s.log.Warn("unexpected message code on receive path", "code", m.Code.String())
	}
}

// completeOrDrop matches an OK/VALUES/ERROR to its registered slot by
// corr_id alone. A message with no matching slot (already timed out,
// already answered, or simply unsolicited) is logged and discarded;
// the receiver never dies for this reason (spec.md §4.5).
func (s *Session) completeOrDrop(m *message.Message) {
	s.mtx.Lock()
	ch, ok := s.pending[m.CorrID]
	if ok {
		delete(s.pending, m.CorrID)
	}
	s.mtx.Unlock()
	if !ok {
		s.log.Debug("dropping response for unmatched or timed-out corr_id", "corr_id", m.CorrID, "code", m.Code.String())
		return
	}
	if m.Code == message.ERROR {
		errno, err := m.GetErrno()
		if err != nil {
			ch <- response{err: err}
			return
		}
		ch <- response{err: yerr.NewServerError(errno)}
		return
	}
	ch <- response{msg: m}
}

// handleNotify decodes a NOTIFY body and delivers it to the
// subscription's listener, unless the subscription is unknown
// (never registered, or already removed) or Cancelling (spec.md
// §4.8), in which case it is dropped silently. The wire's
// values_list carries no per-entry change kind (see message.Change's
// doc comment), so every delivered Change reports ChangePut.
func (s *Session) handleNotify(m *message.Message) {
	subID, kvs, err := m.GetNotify()
	if err != nil {
		s.log.Error("malformed NOTIFY, closing session", "err", err)
		s.setState(Disconnected)
		s.failAll(yerr.ErrConnectionLost)
		s.closeTransport()
		return
	}

	s.mtx.Lock()
	sub, ok := s.subs[subID]
	dropped := ok && sub.cancelling
	s.mtx.Unlock()
	if !ok || dropped {
		return
	}

	changes := make([]message.Change, len(kvs))
	for i, kv := range kvs {
		changes[i] = message.Change{Path: kv.Path, Kind: message.ChangePut, Value: kv.Value}
	}
	listener := sub.listener
	s.runCallback(func() { listener(changes) })
}

// handleEval answers a live EVAL invocation (R flag clear) by looking
// up the registered function for the selector's path part, invoking
// it via runCallback (on the Executor if one is configured, otherwise
// inline on the receiver), and writing back VALUES or
// ERROR with the same corr_id. An EVAL arriving with the R flag set is
// a protocol violation on the receive path (registrations are acked
// via OK, never echoed back as EVAL) and is logged and ignored.
func (s *Session) handleEval(m *message.Message) {
	if m.IsEvalRegistration() {
		s.log.Warn("received EVAL with registration flag set on receive path; ignoring", "corr_id", m.CorrID)
		return
	}
	corrID := m.CorrID
	selStr, err := m.GetSelector()
	if err != nil {
		s.log.Error("malformed EVAL, answering with INTERNAL_SERVER_ERROR", "err", err)
		s.replyError(corrID, yerr.ErrnoInternalServerError)
		return
	}
	sel, err := pathsel.NewSelector(selStr)
	if err != nil {
		s.replyError(corrID, yerr.ErrnoInternalServerError)
		return
	}

	s.mtx.Lock()
	reg, ok := s.evals[sel.PathPart()]
	removing := ok && reg.removing
	s.mtx.Unlock()
	if !ok || removing {
		s.replyError(corrID, yerr.ErrnoNotFound)
		return
	}
	fn := reg.fn

	s.runCallback(func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("eval callback panicked, answering with INTERNAL_SERVER_ERROR", "panic", r, "path", sel.PathPart())
				s.replyError(corrID, yerr.ErrnoInternalServerError)
			}
		}()
		qd, err := sel.QueryDict()
		if err != nil {
			s.replyError(corrID, yerr.ErrnoInternalServerError)
			return
		}
		v, err := fn(sel, qd)
		if err != nil {
			s.log.Error("eval callback returned an error, answering with INTERNAL_SERVER_ERROR", "err", err, "path", sel.PathPart())
			s.replyError(corrID, yerr.ErrnoInternalServerError)
			return
		}
		if err := s.replyValues(corrID, sel.PathPart(), v); err != nil {
			s.log.Error("failed to write EVAL reply", "err", err)
		}
	})
}

func (s *Session) replyError(corrID, errno uint64) {
	m := message.NewError(corrID, errno)
	if err := s.fr.WriteFrame(message.Encode(nil, m)); err != nil {
		s.log.Error("failed to write ERROR reply", "err", err)
	}
}

func (s *Session) replyValues(corrID uint64, path string, v value.Value) error {
	m, err := message.NewValues(corrID, []message.KeyValue{{Path: path, Value: v}})
	if err != nil {
		return err
	}
	return s.fr.WriteFrame(message.Encode(nil, m))
}
