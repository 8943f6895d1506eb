package audio

import (
	"math"
	"sync"

	"github.com/jinjor/shepard-glissando/src/glissando"
)

// ----- Param ----- //

// param is an automated value. Scheduled commands are applied while rendering,
// in the order they were scheduled.
type param struct {
	mu           *sync.Mutex
	disposed     *bool
	value        float64
	initialValue float64 // value when the running ramp began
	ramping      bool
	lastT        float64 // sec, latest time rendered
	queue        []glissando.Command
}

var _ glissando.Param = (*param)(nil)

func newParam(mu *sync.Mutex, disposed *bool, value float64) *param {
	return &param{
		mu:       mu,
		disposed: disposed,
		value:    value,
	}
}

// Schedule ...
func (p *param) Schedule(c glissando.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed != nil && *p.disposed {
		return errDisposed
	}
	p.schedule(c)
	return nil
}

func (p *param) schedule(c glissando.Command) {
	switch c.Kind {
	case glissando.CommandCancel:
		// hold the value reached at c.Start, drop everything later.
		// Rendering may already be past c.Start; the held value is never older than that.
		p.valueAt(math.Max(c.Start, p.lastT))
		p.queue = p.queue[:0]
		p.ramping = false
	default:
		p.queue = append(p.queue, c)
	}
}

// valueAt advances the automation to time t and returns the value there.
// t must not go backwards.
func (p *param) valueAt(t float64) float64 {
	p.lastT = t
	for len(p.queue) > 0 {
		e := p.queue[0]
		if t >= e.End {
			p.value = e.Value
			p.ramping = false
			p.queue = p.queue[1:]
			continue
		}
		if e.Kind == glissando.CommandRamp && t >= e.Start {
			if !p.ramping {
				p.initialValue = p.value
				p.ramping = true
			}
			pos := (t - e.Start) / (e.End - e.Start)
			p.value = pos*e.Value + (1-pos)*p.initialValue
		}
		break
	}
	return p.value
}
