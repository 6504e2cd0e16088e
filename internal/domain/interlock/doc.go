// Package interlock contains the trip/recovery decision of the block watch.
//
// Evaluate maps the previous trip State and a Readings snapshot to the next
// State and the Action the attenuator filter should take. It is pure: no I/O,
// no clock, no errors.
package interlock
