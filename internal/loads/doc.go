// Package loads provides the user loads attached to supplies, switches
// and buses, and the aggregator that folds them into one conductance.
//
//   - [UserLoad]: capability interface consumed by links
//   - [ResistiveLoad]: fixed resistance while powered
//   - [ConstantPowerLoad]: draws a fixed power, resistance follows voltage
//   - [Aggregator]: parallel conductance and total power of a load set
//
// Loads go fully off (maximum resistance, zero power) when their fuse is
// blown, their duty cycle is in the off phase, or the supplied voltage is
// not above their under-voltage limit.
package loads
