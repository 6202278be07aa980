/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/yaksio/yaks-go/framer"
	"github.com/yaksio/yaks-go/message"
	"github.com/yaksio/yaks-go/pathsel"
	"github.com/yaksio/yaks-go/value"
	"github.com/yaksio/yaks-go/yerr"
)

// fakeServer drives the server half of a net.Pipe in tests: it reads
// one client frame, decides what to do with it, and optionally writes
// a reply. Errors are returned rather than asserted directly, since
// this runs on its own goroutine and only the test's goroutine may
// call t.Fatal.
type fakeServer struct {
	fr *framer.Framer
}

func newFakeServer(conn net.Conn) *fakeServer {
	return &fakeServer{fr: framer.New(conn)}
}

func (f *fakeServer) recv() (*message.Message, error) {
	buf, err := f.fr.ReadFrame()
	if err != nil {
		return nil, err
	}
	return message.Decode(buf)
}

func (f *fakeServer) send(m *message.Message) error {
	return f.fr.WriteFrame(message.Encode(nil, m))
}

func newTestSession(t *testing.T) (*Session, *fakeServer) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	sess := New(clientConn, Config{RequestTimeout: time.Second})
	t.Cleanup(func() { sess.Close() })
	return sess, newFakeServer(serverConn)
}

func TestLoginSuccess(t *testing.T) {
	sess, srv := newTestSession(t)

	srvErr := make(chan error, 1)
	go func() {
		req, err := srv.recv()
		if err != nil {
			srvErr <- err
			return
		}
		if req.Code != message.LOGIN {
			srvErr <- fmt.Errorf("got code %v, want LOGIN", req.Code)
			return
		}
		if v, ok := req.Property("yaks.login"); !ok || v != "alice:secret" {
			srvErr <- fmt.Errorf("bad yaks.login property: %q ok=%v", v, ok)
			return
		}
		srvErr <- srv.send(message.NewOK(req.CorrID, ""))
	}()

	if err := sess.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := <-srvErr; err != nil {
		t.Fatalf("server: %v", err)
	}
	if !sess.IsConnected() {
		t.Fatal("expected IsConnected() true after a successful login")
	}
}

func TestLoginUnauthorized(t *testing.T) {
	sess, srv := newTestSession(t)

	srvErr := make(chan error, 1)
	go func() {
		req, err := srv.recv()
		if err != nil {
			srvErr <- err
			return
		}
		srvErr <- srv.send(message.NewError(req.CorrID, yerr.ErrnoUnauthorized))
	}()

	err := sess.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, yerr.ErrAuthFailed) {
		t.Fatalf("got %v, want yerr.ErrAuthFailed", err)
	}
	if err := <-srvErr; err != nil {
		t.Fatalf("server: %v", err)
	}
	if sess.IsConnected() {
		t.Fatal("expected IsConnected() false after a failed login")
	}
}

func TestLoginTimeout(t *testing.T) {
	sess, srv := newTestSession(t)
	_ = srv // server never responds

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := sess.Login(ctx, "alice", "secret")
	if !errors.Is(err, yerr.ErrAuthFailed) {
		t.Fatalf("got %v, want yerr.ErrAuthFailed on timeout", err)
	}
}

// drive runs a single request/reply exchange on the server side: it
// receives one message, passes it to build, and sends back whatever
// build returns (a nil message means "send nothing").
func drive(t *testing.T, srv *fakeServer, build func(req *message.Message) *message.Message) <-chan error {
	t.Helper()
	errc := make(chan error, 1)
	go func() {
		req, err := srv.recv()
		if err != nil {
			errc <- err
			return
		}
		reply := build(req)
		if reply == nil {
			errc <- nil
			return
		}
		errc <- srv.send(reply)
	}()
	return errc
}

func loginOK(t *testing.T, sess *Session, srv *fakeServer) {
	t.Helper()
	errc := drive(t, srv, func(req *message.Message) *message.Message {
		return message.NewOK(req.CorrID, "")
	})
	if err := sess.Login(context.Background(), "", ""); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("server: %v", err)
	}
}

func TestPutGetRemove(t *testing.T) {
	sess, srv := newTestSession(t)
	loginOK(t, sess, srv)

	const wsid = "ws-1"
	errc := drive(t, srv, func(req *message.Message) *message.Message {
		if req.Code != message.PUT {
			return message.NewError(req.CorrID, yerr.ErrnoInternalServerError)
		}
		return message.NewOK(req.CorrID, "")
	})
	if err := sess.Put(context.Background(), wsid, "/w/k", value.NewString("hello")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("server: %v", err)
	}

	errc = drive(t, srv, func(req *message.Message) *message.Message {
		kvs := []message.KeyValue{{Path: "/w/k", Value: value.NewString("hello")}}
		m, err := message.NewValues(req.CorrID, kvs)
		if err != nil {
			t.Errorf("NewValues: %v", err)
		}
		return m
	})
	kvs, err := sess.Get(context.Background(), wsid, "/w/k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(kvs) != 1 || kvs[0].Value.Payload() != "hello" {
		t.Fatalf("got %+v, want one entry with payload 'hello'", kvs)
	}
	if err := <-errc; err != nil {
		t.Fatalf("server: %v", err)
	}

	errc = drive(t, srv, func(req *message.Message) *message.Message {
		if req.Code != message.DELETE {
			return message.NewError(req.CorrID, yerr.ErrnoInternalServerError)
		}
		return message.NewOK(req.CorrID, "")
	})
	if err := sess.Remove(context.Background(), wsid, "/w/k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("server: %v", err)
	}
}

func TestSubscribeNotifyUnsubscribe(t *testing.T) {
	sess, srv := newTestSession(t)
	loginOK(t, sess, srv)

	const wsid = "ws-1"
	changeCh := make(chan []message.Change, 1)
	errc := drive(t, srv, func(req *message.Message) *message.Message {
		if req.Code != message.SUB {
			return message.NewError(req.CorrID, yerr.ErrnoInternalServerError)
		}
		return message.NewOK(req.CorrID, "sub-1")
	})
	subID, err := sess.Subscribe(context.Background(), wsid, "/w/**", func(changes []message.Change) {
		changeCh <- changes
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if subID != "sub-1" {
		t.Fatalf("got subID %q, want sub-1", subID)
	}
	if err := <-errc; err != nil {
		t.Fatalf("server: %v", err)
	}

	// Server pushes a NOTIFY unsolicited (no corr_id reply expected).
	notify, err := message.NewNotify(0, "sub-1", []message.KeyValue{{Path: "/w/k", Value: value.NewString("123")}})
	if err != nil {
		t.Fatalf("NewNotify: %v", err)
	}
	if err := srv.send(notify); err != nil {
		t.Fatalf("server send NOTIFY: %v", err)
	}

	select {
	case changes := <-changeCh:
		if len(changes) != 1 || changes[0].Path != "/w/k" || !changes[0].Value.Equal(value.NewString("123")) {
			t.Fatalf("got %+v, want one Change for /w/k with value '123'", changes)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for NOTIFY dispatch")
	}

	errc = drive(t, srv, func(req *message.Message) *message.Message {
		if req.Code != message.UNSUB {
			return message.NewError(req.CorrID, yerr.ErrnoInternalServerError)
		}
		return message.NewOK(req.CorrID, "")
	})
	if err := sess.Unsubscribe(context.Background(), wsid, subID); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("server: %v", err)
	}

	// A NOTIFY for the now-removed subscription must not reach the listener.
	notify2, err := message.NewNotify(0, "sub-1", []message.KeyValue{{Path: "/w/k", Value: value.NewString("456")}})
	if err != nil {
		t.Fatalf("NewNotify: %v", err)
	}
	if err := srv.send(notify2); err != nil {
		t.Fatalf("server send NOTIFY: %v", err)
	}
	select {
	case changes := <-changeCh:
		t.Fatalf("unexpected delivery after unsubscribe: %+v", changes)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegisterEvalInvoke(t *testing.T) {
	sess, srv := newTestSession(t)
	loginOK(t, sess, srv)

	const wsid = "ws-1"
	errc := drive(t, srv, func(req *message.Message) *message.Message {
		if req.Code != message.EVAL || !req.IsEvalRegistration() {
			return message.NewError(req.CorrID, yerr.ErrnoInternalServerError)
		}
		return message.NewOK(req.CorrID, "")
	})
	fn := func(sel pathsel.Selector, query map[string]interface{}) (value.Value, error) {
		if query["hello"] != "mondo" {
			return value.Value{}, fmt.Errorf("unexpected query %+v", query)
		}
		return value.NewString("mondo World!"), nil
	}
	if err := sess.RegisterEval(context.Background(), wsid, "/w/f", fn); err != nil {
		t.Fatalf("RegisterEval: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("server: %v", err)
	}

	// Server sends a live EVAL invocation and expects a VALUES reply on the
	// same corr_id.
	invocation := message.NewEvalInvoke(42, "/w/f?hello=mondo")
	if err := srv.send(invocation); err != nil {
		t.Fatalf("server send EVAL: %v", err)
	}
	buf, err := srv.fr.ReadFrame()
	if err != nil {
		t.Fatalf("server read reply: %v", err)
	}
	reply, err := message.Decode(buf)
	if err != nil {
		t.Fatalf("server decode reply: %v", err)
	}
	if reply.Code != message.VALUES || reply.CorrID != 42 {
		t.Fatalf("got code %v corr_id %d, want VALUES 42", reply.Code, reply.CorrID)
	}
	kvs, err := reply.GetValues()
	if err != nil {
		t.Fatalf("GetValues: %v", err)
	}
	if len(kvs) != 1 || kvs[0].Value.Payload() != "mondo World!" {
		t.Fatalf("got %+v, want one entry 'mondo World!'", kvs)
	}

	errc = drive(t, srv, func(req *message.Message) *message.Message {
		if req.Code != message.EVAL || !req.IsEvalRegistration() {
			return message.NewError(req.CorrID, yerr.ErrnoInternalServerError)
		}
		return message.NewOK(req.CorrID, "")
	})
	if err := sess.UnregisterEval(context.Background(), wsid, "/w/f"); err != nil {
		t.Fatalf("UnregisterEval: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("server: %v", err)
	}

	// A subsequent invocation for the now-unregistered path must be
	// answered with ERROR NOT_FOUND.
	invocation2 := message.NewEvalInvoke(43, "/w/f?hello=mondo")
	if err := srv.send(invocation2); err != nil {
		t.Fatalf("server send EVAL: %v", err)
	}
	buf, err = srv.fr.ReadFrame()
	if err != nil {
		t.Fatalf("server read reply: %v", err)
	}
	reply, err = message.Decode(buf)
	if err != nil {
		t.Fatalf("server decode reply: %v", err)
	}
	if reply.Code != message.ERROR || reply.CorrID != 43 {
		t.Fatalf("got code %v corr_id %d, want ERROR 43", reply.Code, reply.CorrID)
	}
	errno, err := reply.GetErrno()
	if err != nil {
		t.Fatalf("GetErrno: %v", err)
	}
	if errno != yerr.ErrnoNotFound {
		t.Fatalf("got errno %d, want ErrnoNotFound", errno)
	}
}

func TestLogout(t *testing.T) {
	sess, srv := newTestSession(t)
	loginOK(t, sess, srv)

	errc := drive(t, srv, func(req *message.Message) *message.Message {
		if req.Code != message.LOGOUT {
			return message.NewError(req.CorrID, yerr.ErrnoInternalServerError)
		}
		return message.NewOK(req.CorrID, "")
	})
	if err := sess.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("server: %v", err)
	}
	if sess.IsConnected() {
		t.Fatal("expected IsConnected() false after Logout")
	}
}

func TestUpdateNotImplemented(t *testing.T) {
	sess, _ := newTestSession(t)
	if err := sess.Update(context.Background(), "ws-1", "/w/k", value.NewString("x")); !errors.Is(err, yerr.ErrNotImplemented) {
		t.Fatalf("got %v, want yerr.ErrNotImplemented", err)
	}
}
