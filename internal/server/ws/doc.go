// Package wsserver serves the push channel over WebSocket.
//
// Observers exchange JSON envelopes {"event": ..., "data": ...}. An inbound
// "log" event carries a pre-evaluated record that is stored subject to the
// dedup window; every committed record is sent to all observers as a
// "new-log" event. Each connection has one writer goroutine, which also sends
// pings; the read deadline is refreshed by pongs and inbound frames.
package wsserver
