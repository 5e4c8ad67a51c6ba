package telemetry

import (
	"sync"
)

type fakeConn struct {
	addr   string
	mu     sync.Mutex
	closed bool
}

func (c *fakeConn) RemoteAddr() string { return c.addr }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) Write(b []byte) (int, error) { return len(b), nil }

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type recordingDispatcher struct {
	items []interface{}
}

func (d *recordingDispatcher) Dispatch(data interface{}) {
	d.items = append(d.items, data)
}
