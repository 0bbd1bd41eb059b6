// ABOUTME: Receiver package for the listening end of a udp-audio stream
// ABOUTME: Binds a UDP port and plays decoded mono samples
// Package receiver listens for udp-audio datagrams.
//
// Each datagram carries headerless native-endian int16 mono samples. A
// datagram with an odd length is counted and dropped; an empty datagram is
// counted and produces no output.
package receiver
