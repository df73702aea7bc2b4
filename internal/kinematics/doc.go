// Package kinematics solves the per-corner suspension linkage: lever,
// push rod and pneumatic cylinder attachment points as a function of the
// lever angle and the chassis pose.
//
// The solved [Geometry] is purely derived data; the lever angle plus the
// fixed [Config] are the only authoritative inputs. Interference between
// non-adjacent parts is checked with capsule proxies and reported as an
// advisory overlap, never blocking the solve.
package kinematics
