// Package local implements collective.Comm for a group of goroutines in a
// single process. Each collective is a rendezvous: the last member to arrive
// combines every contribution and releases the others.
package local
