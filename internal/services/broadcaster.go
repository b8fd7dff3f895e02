package services

// Broadcaster publishes realtime events to subscribers of a topic.
// Implemented by the websocket hub; tests substitute a recorder.
type Broadcaster interface {
	Publish(topic string, message interface{})
}

// NopBroadcaster discards every event
type NopBroadcaster struct{}

// Publish implements Broadcaster
func (NopBroadcaster) Publish(string, interface{}) {}
