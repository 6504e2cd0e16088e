// Package redispv maps the block watch process variables onto Redis.
//
// Every PV is a Redis string key named after the PV. Writers SET the key and
// PUBLISH the new value on a channel of the same name; the Bus subscribes to
// those channels and invokes the change handlers registered through
// Signal.OnChange. The package provides the watch signals, the trip flag
// status writer and a filter actuator on top of the bus.
package redispv
