// Package logx is timesignal's logging front end over zerolog: a value-type
// Logger with typed fields, and a Service whose level and sinks (console,
// JSON file) can be swapped on config reload.
package logx
