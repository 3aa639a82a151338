package extract

import (
	"sync"
	"time"

	"github.com/spherical/textgrab/internal/domain"
)

// Subscribe returns a channel of stream events and a function that ends the
// subscription. Slow subscribers lose events rather than block extraction.
func (c *Controller) Subscribe() (<-chan domain.StreamEvent, func()) {
	ch := make(chan domain.StreamEvent, c.opts.EventBuffer)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}
}

// emit delivers an event to every subscriber. Events of stale sessions are
// dropped, except the superseded notice itself.
func (c *Controller) emit(sess *Session, event domain.StreamEvent) {
	event.SessionID = sess.ID
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if event.Type != domain.EventSuperseded && sess.Generation != c.state.generation {
		return
	}

	for _, ch := range c.subs {
		select {
		case ch <- event:
		default:
			c.logger.Warn().Str("type", string(event.Type)).Msg("Event channel full, dropping event")
		}
	}
}
