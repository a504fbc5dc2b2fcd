// SPDX-License-Identifier: EPL-2.0

// Package webaudio implements the graph device contract on top of the
// browser Web Audio API. It is only built for GOOS=js.
//
// Nodes from other graph implementations cannot be connected to these nodes.
// Buffers created elsewhere are copied into an AudioBuffer when assigned to a
// buffer source or convolver.
package webaudio
