package handler

import "sync"

// Collector buffers bot replies per user so the synchronous HTTP gateway can
// return them in the response body. Implements bot.Notifier.
type Collector struct {
	mu      sync.Mutex
	replies map[int64][]string
}

func NewCollector() *Collector {
	return &Collector{replies: make(map[int64][]string)}
}

func (c *Collector) Send(userID int64, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[userID] = append(c.replies[userID], text)
}

// Drain returns and clears the buffered replies for one user.
func (c *Collector) Drain(userID int64) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.replies[userID]
	delete(c.replies, userID)
	return out
}
