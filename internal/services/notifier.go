package services

import (
	"github.com/yungbote/pulse-backend/internal/capture"
	"github.com/yungbote/pulse-backend/internal/insight"
	"github.com/yungbote/pulse-backend/internal/realtime"
)

// Emitter delivers a dashboard message; *bus.Fanout and *realtime.Hub both fit.
type Emitter interface {
	Notify(msg realtime.Message)
}

type hubEmitter struct{ hub *realtime.Hub }

func (e hubEmitter) Notify(msg realtime.Message) { e.hub.Broadcast(msg) }

// HubEmitter delivers straight to a local hub.
func HubEmitter(hub *realtime.Hub) Emitter { return hubEmitter{hub: hub} }

type ModelUpdate struct {
	Version int64  `json:"version"`
	Reason  string `json:"reason"`
	Ready   bool   `json:"revealReady"`
}

type PermissionPrompt struct {
	Reason string `json:"reason"`
}

// DashboardNotifier turns session activity into stream events on one channel.
type DashboardNotifier interface {
	ModelChanged(c insight.Change)
	CaptureState(st capture.Status)
	PromptPermission(reason error)
}

type dashboardNotifier struct {
	emitter Emitter
	channel string
}

func NewDashboardNotifier(emitter Emitter, channel string) DashboardNotifier {
	return &dashboardNotifier{emitter: emitter, channel: channel}
}

func (n *dashboardNotifier) emit(event string, data any) {
	if n == nil || n.emitter == nil {
		return
	}
	n.emitter.Notify(realtime.Message{Channel: n.channel, Event: event, Data: data})
}

func (n *dashboardNotifier) ModelChanged(c insight.Change) {
	n.emit(realtime.EventModelUpdated, ModelUpdate{Version: c.Version, Reason: c.Reason, Ready: c.Reveal.Ready})
	if c.RevealOpened {
		n.emit(realtime.EventRevealReady, c.Reveal)
	}
}

func (n *dashboardNotifier) CaptureState(st capture.Status) {
	n.emit(realtime.EventCaptureState, st)
}

func (n *dashboardNotifier) PromptPermission(reason error) {
	msg := ""
	if reason != nil {
		msg = reason.Error()
	}
	n.emit(realtime.EventPermissionRequired, PermissionPrompt{Reason: msg})
}
