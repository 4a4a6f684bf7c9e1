// Package receiver runs the byte pump for one u-blox receiver.
//
// A Service opens the configured transport (serial port, file, stdin or a
// recorded frame log), optionally sends the tracking setup commands, and
// feeds every byte through the UBX synchronizer and dispatcher on a single
// goroutine. Decoded epochs and subframes go to a trk.Sink.
package receiver
