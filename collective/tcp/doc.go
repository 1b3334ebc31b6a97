// Package tcp implements collective.Comm over TCP for one process per rank.
//
// The group is a star: rank 0 accepts one connection from every other rank
// and acts as the hub for every collective. Members send their contribution
// to the hub, the hub combines all contributions in rank order and sends the
// result back, so reductions are bit-identical on every member.
//
// Messages are length-prefixed frames encoded with a codec.Codec and
// optionally compressed. Both are agreed on during the handshake. Every
// collective is a single frame, so Options.MaxFrameSize limits the largest
// buffer a group can move; an oversized frame aborts the group with
// ErrFrameTooLarge. An abort on any member is forwarded through the hub to
// every other member.
//
// A Comm supports one collective at a time; callers must not issue
// collectives concurrently on the same Comm.
package tcp
