package viewer

// Navigator is a bounded page cursor over [0, MaxPageIndex] that drives the
// scheduler. Moves run on the presentation loop; the Can* queries are safe
// anywhere.
type Navigator struct {
	s *Scheduler
}

// NavState is a snapshot of the cursor and which moves are enabled.
type NavState struct {
	PageIndex    int  `json:"pageIndex"`
	MaxPageIndex int  `json:"maxPageIndex"`
	CanFirst     bool `json:"canFirst"`
	CanPrevious  bool `json:"canPrevious"`
	CanNext      bool `json:"canNext"`
	CanLast      bool `json:"canLast"`
}

// First moves to page 0.
func (n *Navigator) First() {
	if n.s.onLoop("First", n.First) {
		n.moveTo(0)
	}
}

// Previous moves back one page.
func (n *Navigator) Previous() {
	if n.s.onLoop("Previous", n.Previous) {
		n.moveTo(n.PageIndex() - 1)
	}
}

// Next moves forward one page.
func (n *Navigator) Next() {
	if n.s.onLoop("Next", n.Next) {
		n.moveTo(n.PageIndex() + 1)
	}
}

// Last moves to the last page.
func (n *Navigator) Last() {
	if n.s.onLoop("Last", n.Last) {
		n.moveTo(n.MaxPageIndex())
	}
}

// Go moves to page i, clamped.
func (n *Navigator) Go(i int) {
	if n.s.onLoop("Go", func() { n.Go(i) }) {
		n.moveTo(i)
	}
}

// moveTo runs on the loop, so relative moves see every earlier move.
func (n *Navigator) moveTo(i int) {
	i = min(max(i, 0), n.MaxPageIndex())
	if i == n.PageIndex() {
		return
	}
	n.s.SetPageIndex(i)
}

// PageIndex returns the current page.
func (n *Navigator) PageIndex() int { return n.s.PageIndex.Get() }

// MaxPageIndex returns the last valid page index.
func (n *Navigator) MaxPageIndex() int { return n.s.MaxPageIndex.Get() }

// CanFirst reports whether First would change the page.
func (n *Navigator) CanFirst() bool { return n.MaxPageIndex() > 0 && n.PageIndex() > 0 }

// CanPrevious reports whether Previous would change the page.
func (n *Navigator) CanPrevious() bool { return n.CanFirst() }

// CanNext reports whether Next would change the page.
func (n *Navigator) CanNext() bool { return n.MaxPageIndex() > 0 && n.PageIndex() < n.MaxPageIndex() }

// CanLast reports whether Last would change the page.
func (n *Navigator) CanLast() bool { return n.CanNext() }

// State returns a consistent snapshot.
func (n *Navigator) State() NavState {
	idx, maxIdx := n.PageIndex(), n.MaxPageIndex()
	back := maxIdx > 0 && idx > 0
	fwd := maxIdx > 0 && idx < maxIdx
	return NavState{
		PageIndex:    idx,
		MaxPageIndex: maxIdx,
		CanFirst:     back,
		CanPrevious:  back,
		CanNext:      fwd,
		CanLast:      fwd,
	}
}

// OnChange calls fn with the new state whenever the page or the page range
// changes. fn runs on the goroutine that made the change.
func (n *Navigator) OnChange(fn func(NavState)) (cancel func()) {
	c1 := n.s.PageIndex.Subscribe(func(_, _ int) { fn(n.State()) })
	c2 := n.s.MaxPageIndex.Subscribe(func(_, _ int) { fn(n.State()) })
	return func() {
		c1()
		c2()
	}
}
