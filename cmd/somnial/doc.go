// somnial is a lightweight point-telemetry backend. It accepts
// single-valued metric points over HTTP, stamps them with the server
// clock, stores them durably in PostgreSQL and serves ordered range
// queries to external charting consumers.
package main
