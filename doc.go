// Package telegraph provides an entity, state machine, and message
// dispatch kernel for tick-driven simulations.
//
// The kernel is in packages 'core' (clock, telegrams, states,
// machines, entities), 'crew' (the entity registry), 'timers' (the
// delayed-telegram backlog), and 'dispatch' (the post office).
// Package 'sio' runs a simulation and couples it to the outside
// world, and 'interpreters/goja' lets states be written in
// ECMAScript.  Some command-line tools are in `cmd`.
package telegraph
