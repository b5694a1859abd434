// Package source reads measurement series for the filter, either from CSV
// files or line by line from a serial device.
//
// Every record is "t,u_1,…,u_m,z_1,…,z_p": a time followed by the inputs and
// then the measured outputs. Lines starting with '#' and blank lines are
// ignored.
package source
