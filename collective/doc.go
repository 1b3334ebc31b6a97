// Package collective defines the blocking group operations workers use to
// exchange and combine data.
//
// Every member of a group must call the same sequence of collectives; a call
// returns only after every member has reached it. Buffers are updated in
// place, so callers never share memory with other members.
//
// A member that hits a fatal error calls Abort. Every pending and future
// collective on every member then fails with an error that satisfies
// errors.Is(err, ErrAborted).
//
// Implementations:
//   - collective/local: members are goroutines in one process
//   - collective/tcp: members are processes connected in a star around rank 0
package collective
