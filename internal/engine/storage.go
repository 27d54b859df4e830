package engine

import (
	"context"
	"time"

	"bidvault/internal/model"
)

// Storage is the persistence boundary of the engine. The Postgres
// implementation lives in internal/repository; tests use the in-memory
// implementation from internal/engine/enginetest.
//
// InTx runs fn against a transaction-bound Storage. All writes inside fn
// commit or roll back together; reads through GetProjectForUpdate /
// GetDisputeForUpdate lock the row so state checks stay valid until commit.
// Outside InTx only read methods may be called.
type Storage interface {
	InTx(ctx context.Context, fn func(s Storage) error) error

	// Projects. CreateProject assigns the next id.
	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, id int) (*model.Project, error)
	GetProjectForUpdate(ctx context.Context, id int) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	SetSelectedBidder(ctx context.Context, projectID, bidder int) error
	SetDeadline(ctx context.Context, projectID int, deadline time.Time) error
	SetActive(ctx context.Context, projectID int, active bool) error
	SetDisputeRaised(ctx context.Context, projectID int, raised bool) error
	MarkMilestonePaid(ctx context.Context, projectID, index int) error

	// Bids. CreateBid assigns the next index within the project; GetBid
	// returns ErrInvalidIndex when no bid exists at that index.
	CreateBid(ctx context.Context, b *model.Bid) error
	GetBid(ctx context.Context, projectID, index int) (*model.Bid, error)
	ListBids(ctx context.Context, projectID int) ([]model.Bid, error)
	HasBid(ctx context.Context, projectID, bidder int) (bool, error)

	// Disputes. CreateDispute assigns the next id.
	CreateDispute(ctx context.Context, d *model.Dispute) error
	GetDispute(ctx context.Context, id int) (*model.Dispute, error)
	GetDisputeForUpdate(ctx context.Context, id int) (*model.Dispute, error)
	GetOpenDispute(ctx context.Context, projectID int) (*model.Dispute, error)
	AddVote(ctx context.Context, disputeID, voter int, vote bool) error
	ResolveDispute(ctx context.Context, disputeID int, outcome string) error

	// Escrow and party balances. Only the vault mutates these.
	EscrowBalance(ctx context.Context, projectID int) (int64, error)
	CreditEscrow(ctx context.Context, projectID int, amount int64) error
	DebitEscrow(ctx context.Context, projectID int, amount int64) error
	CreditParty(ctx context.Context, userID int, amount int64) error
	PartyBalance(ctx context.Context, userID int) (int64, error)

	// AppendEvent stages a domain event in the same transaction as the state
	// change that produced it.
	AppendEvent(ctx context.Context, aggregateType string, aggregateID int64, routingKey string, payload any) error
}
