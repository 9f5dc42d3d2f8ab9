package service

import (
	"container/list"
	"sync"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// ProgressBuffer tracks per-agent status and a bounded event log for one
// run, and forwards events to an optional subscriber channel. It is the
// run's EventSink; branches emit into it concurrently.
type ProgressBuffer struct {
	mu        sync.Mutex
	events    *list.List
	maxEvents int
	status    map[string]string
	subscribe chan models.ProgressEvent
	closed    bool
}

func NewProgressBuffer(maxEvents int) *ProgressBuffer {
	if maxEvents <= 0 {
		maxEvents = 100
	}
	status := make(map[string]string)
	for _, agent := range consts.BranchAgents {
		status[agent] = consts.StatePending
	}
	status[consts.AgentQualityGate] = consts.StatePending
	status[consts.AgentRiskManager] = consts.StatePending

	return &ProgressBuffer{
		events:    list.New(),
		maxEvents: maxEvents,
		status:    status,
		subscribe: make(chan models.ProgressEvent, 64),
	}
}

// Emit records the event and forwards it without blocking; a slow
// subscriber loses events rather than stalling a branch.
func (p *ProgressBuffer) Emit(e models.ProgressEvent) {
	p.mu.Lock()
	p.status[e.Agent] = e.Status
	p.events.PushBack(e)
	if p.events.Len() > p.maxEvents {
		p.events.Remove(p.events.Front())
	}
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return
	}
	select {
	case p.subscribe <- e:
	default:
	}
}

// Events is the subscriber stream. It is closed after the terminal event.
func (p *ProgressBuffer) Events() <-chan models.ProgressEvent {
	return p.subscribe
}

// Finish emits exactly one terminal event and closes the stream.
func (p *ProgressBuffer) Finish(e models.ProgressEvent) {
	e.Terminal = true

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.status[e.Agent] = e.Status
	p.events.PushBack(e)
	p.mu.Unlock()

	// The buffer has room for the terminal event by construction only
	// when the subscriber kept up; make room if it did not.
	select {
	case p.subscribe <- e:
	default:
		select {
		case <-p.subscribe:
		default:
		}
		p.subscribe <- e
	}
	close(p.subscribe)
}

// AgentStatus returns a snapshot of per-agent states.
func (p *ProgressBuffer) AgentStatus() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.status))
	for k, v := range p.status {
		out[k] = v
	}
	return out
}

// Log returns the retained events oldest-first.
func (p *ProgressBuffer) Log() []models.ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.ProgressEvent, 0, p.events.Len())
	for el := p.events.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(models.ProgressEvent))
	}
	return out
}
