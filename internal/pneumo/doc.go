// Package pneumo models the pneumatic side of the suspension: per-cylinder
// gas chambers, the shared receiver, and the directional valve network
// connecting them.
//
//   - [GasState]: one gas volume; pV = mRT holds after every mutation
//   - [CheckValve], [ReliefValve]: directional flow elements with hysteresis
//   - [Network]: ordered line evaluation, deterministic across steps
//   - [System]: four corners + receiver + atmosphere, one Step per dt
//
// All quantities are SI (Pa, K, m^3, kg). Unit conversion is an
// external-interface concern and never happens inside this package.
package pneumo
