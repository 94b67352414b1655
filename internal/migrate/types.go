package migrate

import (
	"tierconvert/internal/stats"
	"tierconvert/internal/tier"
)

// WorkItem is a discovered object waiting to be converted
type WorkItem struct {
	Key               string
	ConvertToAdaptive bool
}

// Plan holds the work items of each tier in discovery order
type Plan [tier.Count][]WorkItem

// Items returns the work items of t
func (p *Plan) Items(t tier.Tier) []WorkItem {
	return p[t]
}

// Len returns the number of work items across all tiers
func (p *Plan) Len() int {
	n := 0
	for _, items := range p {
		n += len(items)
	}
	return n
}

// Observer is notified as objects move through a run
type Observer interface {
	Discovered(t tier.Tier, key string)
	Observe(t tier.Tier, key string, outcome stats.Outcome, err error)
	PollRound(t tier.Tier, pending int)
}

type multiObserver []Observer

// Observers fans events out to every non-nil observer
func Observers(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) Discovered(t tier.Tier, key string) {
	for _, o := range m {
		o.Discovered(t, key)
	}
}

func (m multiObserver) Observe(t tier.Tier, key string, outcome stats.Outcome, err error) {
	for _, o := range m {
		o.Observe(t, key, outcome, err)
	}
}

func (m multiObserver) PollRound(t tier.Tier, pending int) {
	for _, o := range m {
		o.PollRound(t, pending)
	}
}

// record updates st and notifies obs
func record(obs Observer, st *stats.Stats, t tier.Tier, key string, outcome stats.Outcome, err error) {
	st.Record(outcome)
	if obs != nil {
		obs.Observe(t, key, outcome, err)
	}
}
