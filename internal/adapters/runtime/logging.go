package runtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/osiris-robotics/plexus/internal/domain"
)

// RegisterPublisher records topic metadata, first write wins. Repeated
// registration of the same topic is a no-op.
func (c *Context) RegisterPublisher(topic, messageType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.publishers[topic]; ok {
		return
	}
	c.publishers[topic] = domain.TopicRegistration{
		Topic:        topic,
		MessageType:  messageType,
		RegisteredAt: time.Now(),
	}
	c.publishCounts[topic] = 0
}

func (c *Context) RegisterSubscriber(topic, messageType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subscribers[topic]; ok {
		return
	}
	c.subscribers[topic] = domain.TopicRegistration{
		Topic:        topic,
		MessageType:  messageType,
		RegisteredAt: time.Now(),
	}
	c.receiveCounts[topic] = 0
}

func (c *Context) Publishers() map[string]domain.TopicRegistration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]domain.TopicRegistration, len(c.publishers))
	for k, v := range c.publishers {
		out[k] = v
	}
	return out
}

func (c *Context) Subscribers() map[string]domain.TopicRegistration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]domain.TopicRegistration, len(c.subscribers))
	for k, v := range c.subscribers {
		out[k] = v
	}
	return out
}

func (c *Context) PublishCount(topic string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.publishCounts[topic]
}

func (c *Context) ReceiveCount(topic string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receiveCounts[topic]
}

// LogPublish books one outgoing message on a topic and mirrors it to the
// observability stream. The stream write is a side effect independent of
// the node's own data path.
func (c *Context) LogPublish(topic, summary string, ipcLatency time.Duration) {
	c.mu.Lock()
	c.metrics.MessagesSent++
	c.publishCounts[topic]++
	tick := c.metrics.SuccessfulTicks
	last := c.metrics.LastTickDurationMs
	c.mu.Unlock()

	c.publish(domain.LogKindPublish, topic, summary, tick, last, ipcLatency)
}

func (c *Context) LogSubscribe(topic, summary string, ipcLatency time.Duration) {
	c.mu.Lock()
	c.metrics.MessagesReceived++
	c.receiveCounts[topic]++
	tick := c.metrics.SuccessfulTicks
	last := c.metrics.LastTickDurationMs
	c.mu.Unlock()

	c.publish(domain.LogKindSubscribe, topic, summary, tick, last, ipcLatency)
}

func (c *Context) LogInfo(msg string) {
	c.mu.Lock()
	tick := c.metrics.SuccessfulTicks
	last := c.metrics.LastTickDurationMs
	c.mu.Unlock()

	c.logger.Info(msg)
	c.publish(domain.LogKindInfo, "", msg, tick, last, 0)
}

func (c *Context) LogWarning(msg string) {
	c.mu.Lock()
	c.metrics.WarningsCount++
	c.warningHistory.push(msg)
	tick := c.metrics.SuccessfulTicks
	last := c.metrics.LastTickDurationMs
	c.mu.Unlock()

	c.logger.Warn(msg)
	c.publish(domain.LogKindWarning, "", msg, tick, last, 0)
}

func (c *Context) LogError(msg string) {
	c.mu.Lock()
	c.metrics.ErrorsCount++
	c.errorHistory.push(msg)
	tick := c.metrics.SuccessfulTicks
	last := c.metrics.LastTickDurationMs
	c.mu.Unlock()

	c.logger.Error(msg)
	c.publish(domain.LogKindError, "", msg, tick, last, 0)
}

func (c *Context) LogDebug(msg string) {
	c.mu.Lock()
	tick := c.metrics.SuccessfulTicks
	last := c.metrics.LastTickDurationMs
	c.mu.Unlock()

	c.logger.Debug(msg)
	c.publish(domain.LogKindDebug, "", msg, tick, last, 0)
}

func (c *Context) publish(kind domain.LogKind, topic, msg string, tick uint64, lastTickMs float64, ipcLatency time.Duration) {
	c.stream.Publish(domain.LogEntry{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		TickNumber: tick,
		NodeName:   c.name,
		Kind:       kind,
		Topic:      topic,
		Message:    msg,
		TickMicros: int64(lastTickMs * 1000),
		IPCNanos:   ipcLatency.Nanoseconds(),
	})
}

func (c *Context) ErrorHistory() []HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorHistory.snapshot()
}

func (c *Context) WarningHistory() []HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warningHistory.snapshot()
}
