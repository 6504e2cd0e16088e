// Package watch runs the block watch: it samples the RoadRunner signal, the
// event sequencer and the enable toggle, evaluates the interlock and drives
// the attenuator filter and the trip flags.
//
// Monitor depends only on the Signal, Actuator and Status interfaces. Run
// wires them to the Redis process-variable bus and the configured filter
// driver.
package watch
