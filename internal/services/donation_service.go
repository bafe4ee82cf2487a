// Package services – DonationService
//
// This file implements DonationService, the authoritative controller for the
// donation lifecycle. It owns the state machine over
// pending → accepted → assigned → collected (with the rejected branch),
// validates every requested transition against the record's current status
// and the acting role, persists the new state atomically, and then fires the
// best-effort notifications each transition implies.
//
// Transitions are described by a data-driven table rather than a branch
// chain; adding an action means adding a row, not a code path.
//
// Concurrency: there is no optimistic-version column. The status write is
// guarded by the expected source status in its WHERE clause, so of two
// racing admin actions the first writer wins and the loser observes
// ErrInvalidTransition. Beyond that the outcome of concurrent transitions is
// whatever the database serializes (last-write-wins by design).
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// donation id, action, and acting role.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/foodshare/go-donation-backend/internal/domain"
	"github.com/foodshare/go-donation-backend/internal/notify"
	"github.com/foodshare/go-donation-backend/internal/repo"
)

// Lifecycle actions accepted by Apply.
const (
	ActionAccept  = "accept"
	ActionReject  = "reject"
	ActionAssign  = "assign"
	ActionCollect = "collect"
)

// DonationRepo defines the repository contract required by DonationService.
type DonationRepo interface {
	// Create inserts a new pending donation for donorID.
	Create(ctx context.Context, db *gorm.DB, donorID, foodType, quantity, description string, amount *float64) (*domain.Donation, error)

	// Get fetches a donation by ID, or repo.ErrNotFound.
	Get(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error)

	// UpdateStatus applies a patch guarded by the expected source status.
	UpdateStatus(ctx context.Context, db *gorm.DB, id, fromStatus string, patch repo.StatusPatch) error

	// Reject moves a donation to rejected from any of fromStatuses.
	Reject(ctx context.Context, db *gorm.DB, id string, fromStatuses []string) error

	// Count returns the total matching the filter for pagination.
	Count(ctx context.Context, db *gorm.DB, statuses []string, donorID, agentID string) (int64, error)

	// ListPage returns a page of donations matching the filter.
	ListPage(ctx context.Context, db *gorm.DB, statuses []string, donorID, agentID string, offset, limit int) ([]domain.Donation, error)
}

// UserDirectory is the narrow user lookup surface the controller needs to
// resolve donors and agents for validation and notification addressing.
type UserDirectory interface {
	GetByID(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
	FindByRole(ctx context.Context, db *gorm.DB, role string) ([]domain.User, error)
}

// Notifier abstracts the notification dispatcher so tests can record
// attempts. Implementations must treat each call as a single attempt.
type Notifier interface {
	Send(ctx context.Context, req notify.Request) error
}

// TransitionParams carries the action-specific inputs. Only assign uses it.
type TransitionParams struct {
	AgentID string
	Note    string
}

// transitionRule describes one legal edge of the lifecycle graph.
type transitionRule struct {
	actor string   // role required to request the action
	from  []string // legal source statuses
	to    string
}

// transitionTable maps each action to its rule. Reject is legal from both
// pending and accepted; everything else has a single source status.
var transitionTable = map[string]transitionRule{
	ActionAccept:  {actor: domain.RoleAdmin, from: []string{domain.StatusPending}, to: domain.StatusAccepted},
	ActionReject:  {actor: domain.RoleAdmin, from: []string{domain.StatusPending, domain.StatusAccepted}, to: domain.StatusRejected},
	ActionAssign:  {actor: domain.RoleAdmin, from: []string{domain.StatusAccepted}, to: domain.StatusAssigned},
	ActionCollect: {actor: domain.RoleAgent, from: []string{domain.StatusAssigned}, to: domain.StatusCollected},
}

// DonationService coordinates donation submission, lifecycle transitions,
// and read access. One instance is shared across requests.
type DonationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Donations is the donation repository.
	Donations DonationRepo
	// Users resolves donors and agents.
	Users UserDirectory
	// Notifier delivers transition notifications; failures are advisory.
	Notifier Notifier

	// NotifyTimeout bounds each notification attempt after the write
	// committed. <= 0 falls back to 5s.
	NotifyTimeout time.Duration
}

// NewDonationService constructs a DonationService with default bounds.
func NewDonationService(db *gorm.DB, donations DonationRepo, users UserDirectory, n Notifier) *DonationService {
	return &DonationService{
		DB:            db,
		Donations:     donations,
		Users:         users,
		Notifier:      n,
		NotifyTimeout: 5 * time.Second,
	}
}

// foodCaser canonicalizes food type display casing on submission.
var foodCaser = cases.Title(language.English)

// Submit creates a new pending donation for donorID. Food type casing is
// normalized for display ("rice" → "Rice"); quantity and food type are
// required.
func (s *DonationService) Submit(ctx context.Context, donorID, foodType, quantity, description string, amount *float64) (*domain.Donation, error) {
	foodType = strings.TrimSpace(foodType)
	quantity = strings.TrimSpace(quantity)
	if foodType == "" || quantity == "" {
		return nil, fmt.Errorf("%w: food type and quantity are required", ErrInvalidTransition)
	}
	if _, err := s.Users.GetByID(ctx, s.DB, donorID); err != nil {
		return nil, ErrUserNotFound
	}
	return s.Donations.Create(ctx, s.DB, donorID, foodCaser.String(foodType), quantity, strings.TrimSpace(description), amount)
}

// View returns a donation by id. It is a pure query with no side effects.
func (s *DonationService) View(ctx context.Context, id string) (*domain.Donation, error) {
	d, err := s.Donations.Get(ctx, s.DB, id)
	if err != nil {
		return nil, ErrDonationNotFound
	}
	return d, nil
}

// ListPage returns a page of donations filtered by status and scoped to a
// donor or agent when those ids are non-empty. Pure query.
func (s *DonationService) ListPage(ctx context.Context, statuses []string, donorID, agentID string, page, pageSize int) ([]domain.Donation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Donations.Count(ctx, s.DB, statuses, donorID, agentID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Donation{}, 0, nil
	}

	items, err := s.Donations.ListPage(ctx, s.DB, statuses, donorID, agentID, offset, pageSize)
	return items, total, err
}

// Apply validates and executes a lifecycle transition.
//
// Order of checks (and the error each produces):
//  1. unknown action                  → ErrInvalidTransition
//  2. actorRole != required role      → ErrForbidden
//  3. donation id unknown             → ErrDonationNotFound
//  4. status not a legal source       → ErrInvalidTransition
//  5. assign with zero agent users    → ErrNoAgentsAvailable
//  6. assign with unknown agent id    → ErrUserNotFound
//  7. assign to a non-agent user      → ErrInvalidRole
//
// On success the new status (and agent/note for assign) is persisted before
// any notification attempt; notification failures are logged and do not
// affect the returned donation or error.
func (s *DonationService) Apply(ctx context.Context, donationID, action, actorRole string, params TransitionParams) (*domain.Donation, error) {
	tr := otel.Tracer("services/DonationService")
	ctx, span := tr.Start(ctx, "Apply",
		trace.WithAttributes(
			attribute.String("donation.id", donationID),
			attribute.String("donation.action", action),
			attribute.String("actor.role", actorRole),
		),
	)
	defer span.End()

	rule, ok := transitionTable[action]
	if !ok {
		return nil, ErrInvalidTransition
	}
	if actorRole != rule.actor {
		return nil, ErrForbidden
	}

	d, err := s.Donations.Get(ctx, s.DB, donationID)
	if err != nil {
		return nil, ErrDonationNotFound
	}
	if !statusIn(d.Status, rule.from) {
		return nil, ErrInvalidTransition
	}

	var agent *domain.User
	switch action {
	case ActionAssign:
		agent, err = s.resolveAgent(ctx, params.AgentID)
		if err != nil {
			return nil, err
		}
		patch := repo.StatusPatch{Status: rule.to, AgentID: &agent.ID, AgentNote: &params.Note}
		err = s.Donations.UpdateStatus(ctx, s.DB, donationID, d.Status, patch)
	case ActionReject:
		err = s.Donations.Reject(ctx, s.DB, donationID, rule.from)
	default:
		err = s.Donations.UpdateStatus(ctx, s.DB, donationID, d.Status, repo.StatusPatch{Status: rule.to})
	}
	if err != nil {
		// Zero rows affected means another writer moved the record between
		// our read and write; surface it as an illegal transition.
		if err == repo.ErrNotFound {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	// Reflect the committed state locally; reads must observe it immediately.
	d.Status = rule.to
	if action == ActionAssign {
		d.AgentID = &agent.ID
		d.AgentNote = params.Note
	}

	s.dispatchNotifications(ctx, d, action, agent)
	return d, nil
}

// resolveAgent validates the assignment target per the transition table's
// precondition: at least one agent exists, the id is known, and it carries
// the agent role.
func (s *DonationService) resolveAgent(ctx context.Context, agentID string) (*domain.User, error) {
	agents, err := s.Users.FindByRole(ctx, s.DB, domain.RoleAgent)
	if err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return nil, ErrNoAgentsAvailable
	}
	u, err := s.Users.GetByID(ctx, s.DB, agentID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if u.Role != domain.RoleAgent {
		return nil, ErrInvalidRole
	}
	return u, nil
}

// dispatchNotifications fires the zero, one, or two notification attempts a
// committed transition implies. Each attempt runs on a context detached from
// the request (an abandoned HTTP request must not cancel it) but bounded by
// NotifyTimeout. Failures are logged by the dispatcher and ignored here:
// the persisted state change is the authoritative outcome.
func (s *DonationService) dispatchNotifications(ctx context.Context, d *domain.Donation, action string, agent *domain.User) {
	if s.Notifier == nil {
		return
	}

	var reqs []notify.Request
	switch action {
	case ActionAccept:
		donor, err := s.Users.GetByID(ctx, s.DB, d.DonorID)
		if err != nil {
			log.Warn().Str("donation_id", d.ID).Err(err).Msg("donor lookup failed; accept notification skipped")
			return
		}
		reqs = append(reqs, donationRequest(d, donor,
			fmt.Sprintf("Your donation request (%s) has been accepted by the admin.", d.ID)))

	case ActionAssign:
		donor, err := s.Users.GetByID(ctx, s.DB, d.DonorID)
		if err != nil {
			log.Warn().Str("donation_id", d.ID).Err(err).Msg("donor lookup failed; assign notifications degraded")
		} else {
			reqs = append(reqs, donationRequest(d, donor,
				fmt.Sprintf("An agent has been assigned to your donation request (%s). Agent: %s, Email: %s, Phone: %s",
					d.ID, agent.FullName(), agent.Email, orNA(agent.Phone))))
			reqs = append(reqs, donationRequest(d, agent,
				fmt.Sprintf("You have been assigned a new donation request (%s). Donor: %s, Email: %s, Phone: %s",
					d.ID, donor.FullName(), donor.Email, orNA(donor.Phone))))
		}

	default:
		// reject and collect fire no notifications.
		return
	}

	timeout := s.NotifyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	for _, req := range reqs {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		// Each attempt is independent; a donor failure must not skip the agent.
		_ = s.Notifier.Send(nctx, req)
		cancel()
	}
}

// donationRequest builds the sink payload for one recipient, applying the
// sink's "N/A"/"Donation" placeholder conventions for absent fields.
func donationRequest(d *domain.Donation, to *domain.User, message string) notify.Request {
	amount := "Donation"
	if d.Amount != nil {
		amount = fmt.Sprintf("%.2f", *d.Amount)
	}
	return notify.Request{
		Name:     to.FullName(),
		Email:    to.Email,
		Phone:    orNA(to.Phone),
		Address:  orNA(to.Address),
		Amount:   amount,
		FoodType: orNA(d.FoodType),
		Quantity: orNA(d.Quantity),
		Message:  message,
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func statusIn(status string, set []string) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
