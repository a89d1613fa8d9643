// Package trip implements protective-device trip logic with priority
// staggering.
//
// A [Logic] watches one sensed value against a limit. When the limit is
// violated it votes DELAY until the network's converged-step count reaches
// its priority, then trips and votes REJECT on exactly that step, so
// devices with different priorities open one at a time.
//
// [State] groups the four trips of a switch and derives the sub-state
// NOT_TRIPPED -> WAITING_TO_TRIP -> TRIPPED. TRIPPED is left only by Reset.
package trip
