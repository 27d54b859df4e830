// Package enginetest provides an in-memory engine.Storage used by the test
// suites. InTx snapshots the whole store and restores it when the callback
// fails, so rejected operations observably leave state unchanged, matching
// the transactional repository.
package enginetest

import (
	"context"
	"sync"
	"time"

	"bidvault/internal/engine"
	"bidvault/internal/model"
)

// RecordedEvent is an event staged through AppendEvent; committed events are
// visible in Events after InTx returns.
type RecordedEvent struct {
	AggregateType string
	AggregateID   int64
	RoutingKey    string
	Payload       any
}

type MemStore struct {
	mu sync.Mutex

	projects map[int]*model.Project
	bids     map[int][]model.Bid
	disputes map[int]*model.Dispute
	escrow   map[int]int64
	balances map[int]int64

	nextProjectID int
	nextDisputeID int

	Events []RecordedEvent
}

var _ engine.Storage = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		projects:      map[int]*model.Project{},
		bids:          map[int][]model.Bid{},
		disputes:      map[int]*model.Dispute{},
		escrow:        map[int]int64{},
		balances:      map[int]int64{},
		nextProjectID: 1,
		nextDisputeID: 1,
	}
}

func (m *MemStore) InTx(ctx context.Context, fn func(s engine.Storage) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.clone()
	if err := fn(m); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

// EventsByKey returns the committed events with the given routing key.
func (m *MemStore) EventsByKey(routingKey string) []RecordedEvent {
	var out []RecordedEvent
	for _, e := range m.Events {
		if e.RoutingKey == routingKey {
			out = append(out, e)
		}
	}
	return out
}

func (m *MemStore) CreateProject(ctx context.Context, p *model.Project) error {
	p.ID = m.nextProjectID
	m.nextProjectID++
	p.CreatedAt = time.Now()
	m.projects[p.ID] = copyProject(p)
	return nil
}

func (m *MemStore) GetProject(ctx context.Context, id int) (*model.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return copyProject(p), nil
}

func (m *MemStore) GetProjectForUpdate(ctx context.Context, id int) (*model.Project, error) {
	return m.GetProject(ctx, id)
}

func (m *MemStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	out := make([]model.Project, 0, len(m.projects))
	for id := 1; id < m.nextProjectID; id++ {
		if p, ok := m.projects[id]; ok {
			out = append(out, *copyProject(p))
		}
	}
	return out, nil
}

func (m *MemStore) SetSelectedBidder(ctx context.Context, projectID, bidder int) error {
	p, ok := m.projects[projectID]
	if !ok {
		return engine.ErrNotFound
	}
	p.SelectedBidder = bidder
	return nil
}

func (m *MemStore) SetDeadline(ctx context.Context, projectID int, deadline time.Time) error {
	p, ok := m.projects[projectID]
	if !ok {
		return engine.ErrNotFound
	}
	p.Deadline = deadline
	return nil
}

func (m *MemStore) SetActive(ctx context.Context, projectID int, active bool) error {
	p, ok := m.projects[projectID]
	if !ok {
		return engine.ErrNotFound
	}
	p.Active = active
	return nil
}

func (m *MemStore) SetDisputeRaised(ctx context.Context, projectID int, raised bool) error {
	p, ok := m.projects[projectID]
	if !ok {
		return engine.ErrNotFound
	}
	p.DisputeRaised = raised
	return nil
}

func (m *MemStore) MarkMilestonePaid(ctx context.Context, projectID, index int) error {
	p, ok := m.projects[projectID]
	if !ok {
		return engine.ErrNotFound
	}
	if index < 0 || index >= len(p.MilestonePaid) {
		return engine.ErrInvalidIndex
	}
	p.MilestonePaid[index] = true
	return nil
}

func (m *MemStore) CreateBid(ctx context.Context, b *model.Bid) error {
	b.Index = len(m.bids[b.ProjectID])
	b.CreatedAt = time.Now()
	m.bids[b.ProjectID] = append(m.bids[b.ProjectID], *copyBid(b))
	return nil
}

func (m *MemStore) GetBid(ctx context.Context, projectID, index int) (*model.Bid, error) {
	bids := m.bids[projectID]
	if index < 0 || index >= len(bids) {
		return nil, engine.ErrInvalidIndex
	}
	return copyBid(&bids[index]), nil
}

func (m *MemStore) ListBids(ctx context.Context, projectID int) ([]model.Bid, error) {
	bids := m.bids[projectID]
	out := make([]model.Bid, 0, len(bids))
	for i := range bids {
		out = append(out, *copyBid(&bids[i]))
	}
	return out, nil
}

func (m *MemStore) HasBid(ctx context.Context, projectID, bidder int) (bool, error) {
	for _, b := range m.bids[projectID] {
		if b.Bidder == bidder {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) CreateDispute(ctx context.Context, d *model.Dispute) error {
	d.ID = m.nextDisputeID
	m.nextDisputeID++
	d.CreatedAt = time.Now()
	if d.Votes == nil {
		d.Votes = map[int]bool{}
	}
	m.disputes[d.ID] = copyDispute(d)
	return nil
}

func (m *MemStore) GetDispute(ctx context.Context, id int) (*model.Dispute, error) {
	d, ok := m.disputes[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return copyDispute(d), nil
}

func (m *MemStore) GetDisputeForUpdate(ctx context.Context, id int) (*model.Dispute, error) {
	return m.GetDispute(ctx, id)
}

func (m *MemStore) GetOpenDispute(ctx context.Context, projectID int) (*model.Dispute, error) {
	for id := 1; id < m.nextDisputeID; id++ {
		d, ok := m.disputes[id]
		if ok && d.ProjectID == projectID && !d.Resolved {
			return copyDispute(d), nil
		}
	}
	return nil, nil
}

func (m *MemStore) AddVote(ctx context.Context, disputeID, voter int, vote bool) error {
	d, ok := m.disputes[disputeID]
	if !ok {
		return engine.ErrNotFound
	}
	d.Votes[voter] = vote
	return nil
}

func (m *MemStore) ResolveDispute(ctx context.Context, disputeID int, outcome string) error {
	d, ok := m.disputes[disputeID]
	if !ok {
		return engine.ErrNotFound
	}
	d.Resolved = true
	d.Outcome = outcome
	return nil
}

func (m *MemStore) EscrowBalance(ctx context.Context, projectID int) (int64, error) {
	return m.escrow[projectID], nil
}

func (m *MemStore) CreditEscrow(ctx context.Context, projectID int, amount int64) error {
	m.escrow[projectID] += amount
	return nil
}

func (m *MemStore) DebitEscrow(ctx context.Context, projectID int, amount int64) error {
	if m.escrow[projectID] < amount {
		return engine.ErrInsufficientFunds
	}
	m.escrow[projectID] -= amount
	return nil
}

func (m *MemStore) CreditParty(ctx context.Context, userID int, amount int64) error {
	m.balances[userID] += amount
	return nil
}

func (m *MemStore) PartyBalance(ctx context.Context, userID int) (int64, error) {
	return m.balances[userID], nil
}

func (m *MemStore) AppendEvent(ctx context.Context, aggregateType string, aggregateID int64, routingKey string, payload any) error {
	m.Events = append(m.Events, RecordedEvent{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		RoutingKey:    routingKey,
		Payload:       payload,
	})
	return nil
}

type snapshot struct {
	projects      map[int]*model.Project
	bids          map[int][]model.Bid
	disputes      map[int]*model.Dispute
	escrow        map[int]int64
	balances      map[int]int64
	nextProjectID int
	nextDisputeID int
	events        []RecordedEvent
}

func (m *MemStore) clone() snapshot {
	s := snapshot{
		projects:      map[int]*model.Project{},
		bids:          map[int][]model.Bid{},
		disputes:      map[int]*model.Dispute{},
		escrow:        map[int]int64{},
		balances:      map[int]int64{},
		nextProjectID: m.nextProjectID,
		nextDisputeID: m.nextDisputeID,
		events:        append([]RecordedEvent(nil), m.Events...),
	}
	for id, p := range m.projects {
		s.projects[id] = copyProject(p)
	}
	for id, bids := range m.bids {
		cp := make([]model.Bid, 0, len(bids))
		for i := range bids {
			cp = append(cp, *copyBid(&bids[i]))
		}
		s.bids[id] = cp
	}
	for id, d := range m.disputes {
		s.disputes[id] = copyDispute(d)
	}
	for id, v := range m.escrow {
		s.escrow[id] = v
	}
	for id, v := range m.balances {
		s.balances[id] = v
	}
	return s
}

func (m *MemStore) restore(s snapshot) {
	m.projects = s.projects
	m.bids = s.bids
	m.disputes = s.disputes
	m.escrow = s.escrow
	m.balances = s.balances
	m.nextProjectID = s.nextProjectID
	m.nextDisputeID = s.nextDisputeID
	m.Events = s.events
}

func copyProject(p *model.Project) *model.Project {
	cp := *p
	cp.Milestones = append([]int64(nil), p.Milestones...)
	cp.MilestonePaid = append([]bool(nil), p.MilestonePaid...)
	return &cp
}

func copyBid(b *model.Bid) *model.Bid {
	cp := *b
	cp.Milestones = append([]int64(nil), b.Milestones...)
	return &cp
}

func copyDispute(d *model.Dispute) *model.Dispute {
	cp := *d
	cp.Votes = map[int]bool{}
	for k, v := range d.Votes {
		cp.Votes[k] = v
	}
	return &cp
}
