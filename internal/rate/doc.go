// Package rate implements fixed-window login throttling over Redis counters.
//
// Failed attempts are counted per email and per client IP. The first failure
// in a window sets the key TTL; the window never slides. A successful login
// clears the email counter only, so one account's success cannot launder a
// noisy shared IP.
package rate
