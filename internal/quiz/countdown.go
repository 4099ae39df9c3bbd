package quiz

import "sync"

// countdown delivers ticks for one question until cancelled. onTick receives
// the generation the countdown was started with so the session can drop
// ticks that race with a cancel.
type countdown struct {
	ticker Ticker
	done   chan struct{}
	once   sync.Once
}

func startCountdown(ticker Ticker, gen uint64, onTick func(uint64)) *countdown {
	c := &countdown{
		ticker: ticker,
		done:   make(chan struct{}),
	}
	go c.run(gen, onTick)
	return c
}

func (c *countdown) run(gen uint64, onTick func(uint64)) {
	for {
		select {
		case <-c.done:
			return
		case <-c.ticker.C():
			select {
			case <-c.done:
				return
			default:
			}
			onTick(gen)
		}
	}
}

// cancel is safe to call more than once and from the tick goroutine itself.
func (c *countdown) cancel() {
	c.once.Do(func() {
		c.ticker.Stop()
		close(c.done)
	})
}
