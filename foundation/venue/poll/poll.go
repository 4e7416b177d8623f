// Package poll implements share-weighted majority votes for a single
// governance topic. A voter's units are tallied under its current choice
// and a re-vote shifts them atomically. Tallies reflect the voter's unit
// balance at the time of the vote call; they are not re-tallied when units
// move through trades or transfers.
package poll

import (
	"github.com/devest/venue/foundation/venue/ledger"
)

// Poll tracks the vote of each holder on one topic and the running unit
// tally behind each choice.
type Poll struct {
	votes   map[ledger.AccountID]ledger.AccountID
	weights map[ledger.AccountID]uint64
	tallies map[ledger.AccountID]uint64
}

// New constructs an empty poll.
func New() *Poll {
	return &Poll{
		votes:   make(map[ledger.AccountID]ledger.AccountID),
		weights: make(map[ledger.AccountID]uint64),
		tallies: make(map[ledger.AccountID]uint64),
	}
}

// Cast registers or overwrites the voter's choice with the specified unit
// weight. The voter's previous weight is removed from its old choice. Cast
// reports whether the new choice has reached the majority threshold.
func (p *Poll) Cast(voter ledger.AccountID, choice ledger.AccountID, units uint64) bool {
	if prev, voted := p.votes[voter]; voted {
		p.tallies[prev] -= p.weights[voter]
		if p.tallies[prev] == 0 {
			delete(p.tallies, prev)
		}
	}

	p.votes[voter] = choice
	p.weights[voter] = units
	p.tallies[choice] += units

	return p.tallies[choice] >= ledger.Majority
}

// Tally returns the units currently backing the specified choice.
func (p *Poll) Tally(choice ledger.AccountID) uint64 {
	return p.tallies[choice]
}

// Vote returns the voter's registered choice, if any.
func (p *Poll) Vote(voter ledger.AccountID) (ledger.AccountID, bool) {
	choice, voted := p.votes[voter]
	return choice, voted
}

// Reset clears all votes and tallies. Called after a topic resolves so the
// next proposal starts clean.
func (p *Poll) Reset() {
	p.votes = make(map[ledger.AccountID]ledger.AccountID)
	p.weights = make(map[ledger.AccountID]uint64)
	p.tallies = make(map[ledger.AccountID]uint64)
}
