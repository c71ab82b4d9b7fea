// Package audit implements asynchronous audit event dispatch for the Engine.
//
// Events are buffered through a dedicated goroutine so sink latency never
// lands on an authentication path. Close drains the buffer; events that do
// not fit under backpressure are counted, not silently lost.
package audit
