package realtime

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

type scriptedSource struct {
	mu      sync.Mutex
	streams []string
	lastIDs []string
}

func (s *scriptedSource) OpenEvents(ctx context.Context, lastEventID string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastIDs = append(s.lastIDs, lastEventID)
	if len(s.streams) == 0 {
		return nil, errors.New("connection refused")
	}
	body := s.streams[0]
	s.streams = s.streams[1:]
	return io.NopCloser(strings.NewReader(body)), nil
}

func (s *scriptedSource) opens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lastIDs...)
}

func TestFeedReconnectsWithLastEventID(t *testing.T) {
	src := &scriptedSource{streams: []string{
		"id: 1\nevent: datapoint.created\ndata: {\"id\":\"a\",\"rawText\":\"one\"}\n\n" +
			": keepalive\n\n" +
			"id: 2\nevent: datapoint.created\ndata: {\"id\":\"b\",\"rawText\":\"two\"}\n\n",
		"id: 3\nevent: classification.updated\ndata: {\"id\":\"a\",\"domain\":\"People\"}\n\n",
	}}

	var mu sync.Mutex
	var names []string
	f := NewFeed(nil, src, 5*time.Millisecond, func(_ context.Context, name string, _ []byte) {
		mu.Lock()
		names = append(names, name)
		mu.Unlock()
	})
	f.Start(context.Background())
	f.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(names)
		mu.Unlock()
		if n == 3 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	f.Stop()
	f.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(names) != 3 || names[2] != "classification.updated" {
		t.Fatalf("names=%v", names)
	}
	opens := src.opens()
	if len(opens) < 2 || opens[0] != "" || opens[1] != "2" {
		t.Fatalf("opens=%v", opens)
	}
	if f.LastEventID() != "3" {
		t.Fatalf("last id=%q", f.LastEventID())
	}
	if f.Connects() != 2 {
		t.Fatalf("connects=%d", f.Connects())
	}
}

func TestFeedStopWhileDisconnected(t *testing.T) {
	src := &scriptedSource{}
	f := NewFeed(nil, src, time.Hour, nil)
	f.Start(context.Background())
	deadline := time.Now().Add(time.Second)
	for len(src.opens()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	done := make(chan struct{})
	go func() {
		f.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Stop blocked during reconnect delay")
	}
}
