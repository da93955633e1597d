package workshop

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Event is one server-sent event frame.
type Event struct {
	ID    string
	Name  string
	Data  string
	Retry time.Duration
}

// OpenEvents opens the session feed. lastEventID resumes after a reconnect.
func (c *Client) OpenEvents(ctx context.Context, lastEventID string) (io.ReadCloser, error) {
	path, err := c.sessionPath("/events")
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}
	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp.Body, nil
}

// ReadEvents parses an SSE stream until EOF or onEvent returns an error.
func ReadEvents(r io.Reader, onEvent func(Event) error) error {
	br := bufio.NewReader(r)
	var (
		cur       Event
		dataLines []string
	)

	flush := func() error {
		if len(dataLines) == 0 {
			cur.Name = ""
			return nil
		}
		ev := cur
		ev.Data = strings.Join(dataLines, "\n")
		dataLines = nil
		cur.Name = ""
		cur.Retry = 0
		if onEvent == nil {
			return nil
		}
		return onEvent(ev)
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if strings.TrimSpace(line) == "" {
					return flush()
				}
			} else {
				return err
			}
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if ferr := flush(); ferr != nil {
				return ferr
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			cur.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, "id:"):
			// The id persists across events until the server changes it.
			cur.ID = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		case strings.HasPrefix(line, "retry:"):
			if ms, perr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "retry:"))); perr == nil && ms > 0 {
				cur.Retry = time.Duration(ms) * time.Millisecond
			}
		}
		if err != nil {
			return flush()
		}
	}
}
