// Package event defines the notifications the supervisor emits and the
// ordered queue that carries them to a single consumer.
//
// # Main Types
//
//   - [Event]: Interface that all events implement, providing EventType() and Timestamp()
//   - [Queue]: Unbounded FIFO with a non-blocking Publish and a delivery channel
//
// # Event Types
//
//   - [LogEvent]: a record was appended to the log ("log.appended")
//   - [LogsClearedEvent]: the log was cleared ("log.cleared")
//   - [StateEvent]: the RunState changed ("state.changed")
//   - [ConfigReloadedEvent]: the config file was re-read ("config.reloaded")
//
// # Ordering
//
// Events are delivered in exactly the order Publish was called. Because
// Publish never blocks, the supervisor can publish while holding its own
// lock, which keeps the event order identical to the order of the log and
// state mutations it reports.
//
// # Basic Usage
//
//	q := event.NewQueue()
//	defer q.Close()
//
//	go func() {
//	    for e := range q.C() {
//	        switch ev := e.(type) {
//	        case event.LogEvent:
//	            fmt.Println(ev.Record)
//	        case event.StateEvent:
//	            fmt.Println("state:", ev.To)
//	        }
//	    }
//	}()
package event
