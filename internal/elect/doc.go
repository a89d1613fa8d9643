// Package elect provides the electrical links of a power distribution
// network: an internal power supply that selects among redundant inputs,
// a user-load switch with trips and a loads override, a power bus of
// user loads, and a potential source.
//
// Every link implements [gunns.Link]. Links are created in two phases: a
// builder collects configuration and user loads, and Build validates it
// against the node list and returns the runtime link. Adding a load after
// Build is an initialization error.
//
//	b := elect.NewIpsBuilder(cfg)
//	b.AddUserLoad(heater)
//	ips, err := b.Build(nodes, []int{busA, busB})
//
// Faults are injected through ApplyFault; links never expose their
// malfunction fields.
package elect
