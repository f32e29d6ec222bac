package testutils

import (
	"context"
	"crypto/tls"
	"net/http/httptrace"
	"testing"
	"time"
)

// WithLoginTrace returns a context whose HTTP requests log connection and
// timing events to the test logger. Header values are never logged, so
// signed Authorization material stays out of test output.
func WithLoginTrace(t *testing.T, ctx context.Context) context.Context {
	t.Helper()

	var (
		start    = time.Now()
		previous = start
	)
	logf := func(format string, args ...interface{}) {
		t.Helper()

		now := time.Now()
		delta := now.Sub(previous)
		previous = now

		t.Logf("[+%dms][%v] "+format, append([]interface{}{now.Sub(start).Milliseconds(), delta}, args...)...)
	}

	trace := &httptrace.ClientTrace{
		GetConn: func(hostPort string) {
			logf("GetConn: %s", hostPort)
		},
		GotConn: func(info httptrace.GotConnInfo) {
			logf("GotConn: reused=%v idle=%v", info.Reused, info.WasIdle)
		},
		DNSStart: func(info httptrace.DNSStartInfo) {
			logf("DNSStart: %s", info.Host)
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			logf("DNSDone: %v err=%v", info.Addrs, info.Err)
		},
		ConnectStart: func(network, addr string) {
			logf("ConnectStart: %s %s", network, addr)
		},
		ConnectDone: func(network, addr string, err error) {
			logf("ConnectDone: %s %s err=%v", network, addr, err)
		},
		TLSHandshakeStart: func() {
			logf("TLSHandshakeStart")
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			logf("TLSHandshakeDone: proto=%q err=%v", state.NegotiatedProtocol, err)
		},
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			logf("WroteRequest: err=%v", info.Err)
		},
		GotFirstResponseByte: func() {
			logf("GotFirstResponseByte")
		},
	}

	return httptrace.WithClientTrace(ctx, trace)
}
