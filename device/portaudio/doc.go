// SPDX-License-Identifier: EPL-2.0

// Package portaudio is a device backend on the PortAudio C library.
// Build with -tags portaudio; it needs cgo and libportaudio.
package portaudio
