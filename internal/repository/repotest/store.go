// Package repotest provides an in-memory repository.Store for service tests.
//
// Transactions are serialized and roll back by restoring a snapshot taken at
// ExecTx entry. FailOn injects an error into a named query so tests can
// simulate a storage fault part way through a transaction.
package repotest

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrInjected is a convenient error for FailOn.
var ErrInjected = errors.New("injected storage fault")

type state struct {
	users       map[uuid.UUID]repository.User
	plans       []repository.SubscriptionPlan
	subs        map[uuid.UUID]repository.UserSubscription
	jobPosts    []repository.JobPost
	invitations []repository.Invitation
	contracts   []repository.Contract
	wallets     map[uuid.UUID]repository.Wallet
	walletTxns  []repository.WalletTransaction
	billing     []repository.BillingHistory
	billingInfo map[uuid.UUID]repository.BillingInfo
	events      map[string]repository.ProcessedEvent
	jobs        []repository.Job
}

func newState() state {
	return state{
		users:       make(map[uuid.UUID]repository.User),
		subs:        make(map[uuid.UUID]repository.UserSubscription),
		wallets:     make(map[uuid.UUID]repository.Wallet),
		billingInfo: make(map[uuid.UUID]repository.BillingInfo),
		events:      make(map[string]repository.ProcessedEvent),
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.subs {
		c.subs[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.billingInfo {
		c.billingInfo[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	c.plans = append([]repository.SubscriptionPlan(nil), s.plans...)
	c.jobPosts = append([]repository.JobPost(nil), s.jobPosts...)
	c.invitations = append([]repository.Invitation(nil), s.invitations...)
	c.contracts = append([]repository.Contract(nil), s.contracts...)
	c.walletTxns = append([]repository.WalletTransaction(nil), s.walletTxns...)
	c.billing = append([]repository.BillingHistory(nil), s.billing...)
	c.jobs = append([]repository.Job(nil), s.jobs...)
	return c
}

// Store is an in-memory repository.Store.
type Store struct {
	// Now stamps created_at and updated_at columns. Defaults to the wall clock.
	Now func() time.Time

	txMu   sync.Mutex
	mu     sync.Mutex
	data   state
	faults map[string]error
}

var _ repository.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		Now:    func() time.Time { return time.Now().UTC() },
		data:   newState(),
		faults: make(map[string]error),
	}
}

// FailOn makes every later call to the named query return err.
func (s *Store) FailOn(query string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[query] = err
}

// ClearFaults removes all injected errors.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]error)
}

// fault must be called with mu held.
func (s *Store) fault(query string) error {
	return s.faults[query]
}

// ExecTx runs fn against the store and restores the pre-call state if fn fails.
func (s *Store) ExecTx(ctx context.Context, fn func(q repository.Querier) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------
// Seeding and inspection
// -----------------------------------------------------------------------------

// AddUser inserts a user, filling in ID, status and timestamps when empty.
func (s *Store) AddUser(u repository.User) repository.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.Must(uuid.NewV7())
	}
	if u.Status == "" {
		u.Status = "active"
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.Now()
		u.UpdatedAt = u.CreatedAt
	}
	s.data.users[u.ID] = u
	return u
}

// Subscriptions returns all subscription rows.
func (s *Store) Subscriptions() []repository.UserSubscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.UserSubscription, 0, len(s.data.subs))
	for _, v := range s.data.subs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// BillingHistory returns all billing history rows.
func (s *Store) BillingHistory() []repository.BillingHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.BillingHistory(nil), s.data.billing...)
}

// BillingInfos returns all billing info rows.
func (s *Store) BillingInfos() []repository.BillingInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.BillingInfo, 0, len(s.data.billingInfo))
	for _, v := range s.data.billingInfo {
		out = append(out, v)
	}
	return out
}

// WalletTransactions returns all wallet ledger rows.
func (s *Store) WalletTransactions() []repository.WalletTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.WalletTransaction(nil), s.data.walletTxns...)
}

// ProcessedEvents returns the ids of all recorded provider events.
func (s *Store) ProcessedEvents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data.events))
	for id := range s.data.events {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Jobs returns all queued jobs.
func (s *Store) Jobs() []repository.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.Job(nil), s.data.jobs...)
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetUserByID"); err != nil {
		return repository.User{}, err
	}
	u, ok := s.data.users[id]
	if !ok {
		return repository.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetUserByEmail"); err != nil {
		return repository.User{}, err
	}
	for _, u := range s.data.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return repository.User{}, sql.ErrNoRows
}

// -----------------------------------------------------------------------------
// Plans
// -----------------------------------------------------------------------------

func (s *Store) CreatePlan(ctx context.Context, arg repository.CreatePlanParams) (repository.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("CreatePlan"); err != nil {
		return repository.SubscriptionPlan{}, err
	}
	for _, p := range s.data.plans {
		if p.Name == arg.Name && p.Duration == arg.Duration {
			return repository.SubscriptionPlan{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		}
	}
	now := s.Now()
	p := repository.SubscriptionPlan{
		ID:        arg.ID,
		Name:      arg.Name,
		Duration:  arg.Duration,
		Price:     arg.Price,
		Limits:    arg.Limits,
		Features:  arg.Features,
		IsActive:  arg.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.data.plans = append(s.data.plans, p)
	return p, nil
}

func (s *Store) GetPlanByID(ctx context.Context, id uuid.UUID) (repository.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetPlanByID"); err != nil {
		return repository.SubscriptionPlan{}, err
	}
	for _, p := range s.data.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return repository.SubscriptionPlan{}, sql.ErrNoRows
}

func (s *Store) GetPlanByName(ctx context.Context, name string) (repository.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetPlanByName"); err != nil {
		return repository.SubscriptionPlan{}, err
	}
	for _, p := range s.data.plans {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return repository.SubscriptionPlan{}, sql.ErrNoRows
}

func (s *Store) GetPlanByNameAndDuration(ctx context.Context, arg repository.GetPlanByNameAndDurationParams) (repository.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetPlanByNameAndDuration"); err != nil {
		return repository.SubscriptionPlan{}, err
	}
	for _, p := range s.data.plans {
		if strings.EqualFold(p.Name, arg.Lower) && p.Duration == arg.Duration {
			return p, nil
		}
	}
	return repository.SubscriptionPlan{}, sql.ErrNoRows
}

func (s *Store) UpdatePlan(ctx context.Context, arg repository.UpdatePlanParams) (repository.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("UpdatePlan"); err != nil {
		return repository.SubscriptionPlan{}, err
	}
	for i, p := range s.data.plans {
		if p.ID != arg.ID {
			continue
		}
		p.Name = arg.Name
		p.Duration = arg.Duration
		p.Price = arg.Price
		p.Limits = arg.Limits
		p.Features = arg.Features
		p.IsActive = arg.IsActive
		p.UpdatedAt = s.Now()
		s.data.plans[i] = p
		return p, nil
	}
	return repository.SubscriptionPlan{}, sql.ErrNoRows
}

func (s *Store) DeletePlan(ctx context.Context, id uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("DeletePlan"); err != nil {
		return 0, err
	}
	for i, p := range s.data.plans {
		if p.ID == id {
			s.data.plans = append(s.data.plans[:i:i], s.data.plans[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *Store) ListActivePlans(ctx context.Context) ([]repository.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ListActivePlans"); err != nil {
		return nil, err
	}
	var out []repository.SubscriptionPlan
	for _, p := range s.data.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Price.Equal(out[j].Price) {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) ListPlanNames(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ListPlanNames"); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(s.data.plans))
	for _, p := range s.data.plans {
		out = append(out, p.Name)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Subscriptions
// -----------------------------------------------------------------------------

func (s *Store) GetSubscriptionByUserID(ctx context.Context, userID uuid.UUID) (repository.UserSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetSubscriptionByUserID"); err != nil {
		return repository.UserSubscription{}, err
	}
	sub, ok := s.data.subs[userID]
	if !ok {
		return repository.UserSubscription{}, sql.ErrNoRows
	}
	return sub, nil
}

func (s *Store) UpsertSubscription(ctx context.Context, arg repository.UpsertSubscriptionParams) (repository.UserSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("UpsertSubscription"); err != nil {
		return repository.UserSubscription{}, err
	}
	now := s.Now()
	sub, ok := s.data.subs[arg.UserID]
	if !ok {
		sub = repository.UserSubscription{ID: arg.ID, UserID: arg.UserID, CreatedAt: now}
	}
	sub.Email = arg.Email
	sub.CurrentPlan = arg.CurrentPlan
	sub.Duration = arg.Duration
	sub.PlanExpiresAt = arg.PlanExpiresAt
	sub.RenewDate = arg.RenewDate
	sub.ProviderSubscriptionID = arg.ProviderSubscriptionID
	sub.UpdatedAt = now
	s.data.subs[arg.UserID] = sub
	return sub, nil
}

// -----------------------------------------------------------------------------
// Job posts and invitations
// -----------------------------------------------------------------------------

func (s *Store) CreateJobPost(ctx context.Context, arg repository.CreateJobPostParams) (repository.JobPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("CreateJobPost"); err != nil {
		return repository.JobPost{}, err
	}
	jp := repository.JobPost{
		ID:          arg.ID,
		CreatorID:   arg.CreatorID,
		Title:       arg.Title,
		Description: arg.Description,
		Status:      arg.Status,
		CreatedAt:   s.Now(),
	}
	s.data.jobPosts = append(s.data.jobPosts, jp)
	return jp, nil
}

func (s *Store) GetJobPostByID(ctx context.Context, id uuid.UUID) (repository.JobPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetJobPostByID"); err != nil {
		return repository.JobPost{}, err
	}
	for _, jp := range s.data.jobPosts {
		if jp.ID == id {
			return jp, nil
		}
	}
	return repository.JobPost{}, sql.ErrNoRows
}

func (s *Store) CountJobPostsByCreator(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("CountJobPostsByCreator"); err != nil {
		return 0, err
	}
	var n int64
	for _, jp := range s.data.jobPosts {
		if jp.CreatorID == creatorID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateInvitation(ctx context.Context, arg repository.CreateInvitationParams) (repository.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("CreateInvitation"); err != nil {
		return repository.Invitation{}, err
	}
	inv := repository.Invitation{
		ID:          arg.ID,
		SenderID:    arg.SenderID,
		RecipientID: arg.RecipientID,
		JobID:       arg.JobID,
		Message:     arg.Message,
		CreatedAt:   arg.CreatedAt,
	}
	s.data.invitations = append(s.data.invitations, inv)
	return inv, nil
}

func (s *Store) CountInvitationsBySenderBetween(ctx context.Context, arg repository.CountInvitationsBySenderBetweenParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("CountInvitationsBySenderBetween"); err != nil {
		return 0, err
	}
	var n int64
	for _, inv := range s.data.invitations {
		if inv.SenderID == arg.SenderID && !inv.CreatedAt.Before(arg.CreatedAt) && inv.CreatedAt.Before(arg.CreatedAt_2) {
			n++
		}
	}
	return n, nil
}

// -----------------------------------------------------------------------------
// Contracts
// -----------------------------------------------------------------------------

func (s *Store) CreateContract(ctx context.Context, arg repository.CreateContractParams) (repository.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("CreateContract"); err != nil {
		return repository.Contract{}, err
	}
	now := s.Now()
	c := repository.Contract{
		ID:             arg.ID,
		JobID:          arg.JobID,
		CreatorID:      arg.CreatorID,
		CollaboratorID: arg.CollaboratorID,
		Status:         arg.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.data.contracts = append(s.data.contracts, c)
	return c, nil
}

func (s *Store) GetContractByID(ctx context.Context, id uuid.UUID) (repository.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetContractByID"); err != nil {
		return repository.Contract{}, err
	}
	for _, c := range s.data.contracts {
		if c.ID == id {
			return c, nil
		}
	}
	return repository.Contract{}, sql.ErrNoRows
}

func (s *Store) GetLatestContractForJobAndCollaborator(ctx context.Context, arg repository.GetLatestContractForJobAndCollaboratorParams) (repository.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetLatestContractForJobAndCollaborator"); err != nil {
		return repository.Contract{}, err
	}
	var (
		latest repository.Contract
		found  bool
	)
	for _, c := range s.data.contracts {
		if c.JobID != arg.JobID || c.CollaboratorID != arg.CollaboratorID {
			continue
		}
		if !found || strings.Compare(c.ID.String(), latest.ID.String()) > 0 {
			latest, found = c, true
		}
	}
	if !found {
		return repository.Contract{}, sql.ErrNoRows
	}
	return latest, nil
}

func (s *Store) CountContractsByCreator(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("CountContractsByCreator"); err != nil {
		return 0, err
	}
	var n int64
	for _, c := range s.data.contracts {
		if c.CreatorID == creatorID {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListContractsByParty(ctx context.Context, arg repository.ListContractsByPartyParams) ([]repository.ListContractsByPartyRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ListContractsByParty"); err != nil {
		return nil, err
	}
	titles := make(map[uuid.UUID]string, len(s.data.jobPosts))
	for _, jp := range s.data.jobPosts {
		titles[jp.ID] = jp.Title
	}
	var out []repository.ListContractsByPartyRow
	for _, c := range s.data.contracts {
		if c.CreatorID != arg.PartyID && c.CollaboratorID != arg.PartyID {
			continue
		}
		if arg.Status.Valid && c.Status != arg.Status.String {
			continue
		}
		title, ok := titles[c.JobID]
		if !ok {
			continue
		}
		out = append(out, repository.ListContractsByPartyRow{
			ID:                c.ID,
			JobID:             c.JobID,
			CreatorID:         c.CreatorID,
			CollaboratorID:    c.CollaboratorID,
			Status:            c.Status,
			StartDate:         c.StartDate,
			EndDate:           c.EndDate,
			WorkDescription:   c.WorkDescription,
			WorkSubmittedAt:   c.WorkSubmittedAt,
			WorkAttachmentKey: c.WorkAttachmentKey,
			CreatedAt:         c.CreatedAt,
			UpdatedAt:         c.UpdatedAt,
			JobTitle:          title,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() > out[j].ID.String() })
	return out, nil
}

func (s *Store) UpdateContractTransition(ctx context.Context, arg repository.UpdateContractTransitionParams) (repository.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("UpdateContractTransition"); err != nil {
		return repository.Contract{}, err
	}
	for i, c := range s.data.contracts {
		if c.ID != arg.ID || c.Status != arg.FromStatus {
			continue
		}
		c.Status = arg.ToStatus
		c.StartDate = arg.StartDate
		c.EndDate = arg.EndDate
		c.WorkDescription = arg.WorkDescription
		c.WorkSubmittedAt = arg.WorkSubmittedAt
		c.WorkAttachmentKey = arg.WorkAttachmentKey
		c.UpdatedAt = s.Now()
		s.data.contracts[i] = c
		return c, nil
	}
	return repository.Contract{}, sql.ErrNoRows
}

// -----------------------------------------------------------------------------
// Wallets and billing
// -----------------------------------------------------------------------------

func (s *Store) CreditWallet(ctx context.Context, arg repository.CreditWalletParams) (repository.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("CreditWallet"); err != nil {
		return repository.Wallet{}, err
	}
	w, ok := s.data.wallets[arg.UserID]
	if !ok {
		w = repository.Wallet{ID: arg.ID, UserID: arg.UserID, Balance: arg.Balance}
	} else {
		w.Balance = w.Balance.Add(arg.Balance)
	}
	w.UpdatedAt = s.Now()
	s.data.wallets[arg.UserID] = w
	return w, nil
}

func (s *Store) GetWalletByUserID(ctx context.Context, userID uuid.UUID) (repository.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetWalletByUserID"); err != nil {
		return repository.Wallet{}, err
	}
	w, ok := s.data.wallets[userID]
	if !ok {
		return repository.Wallet{}, sql.ErrNoRows
	}
	return w, nil
}

func (s *Store) CreateWalletTransaction(ctx context.Context, arg repository.CreateWalletTransactionParams) (repository.WalletTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("CreateWalletTransaction"); err != nil {
		return repository.WalletTransaction{}, err
	}
	wt := repository.WalletTransaction{
		ID:        arg.ID,
		WalletID:  arg.WalletID,
		Amount:    arg.Amount,
		Kind:      arg.Kind,
		Reference: arg.Reference,
		CreatedAt: s.Now(),
	}
	s.data.walletTxns = append(s.data.walletTxns, wt)
	return wt, nil
}

func (s *Store) CreateBillingHistory(ctx context.Context, arg repository.CreateBillingHistoryParams) (repository.BillingHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("CreateBillingHistory"); err != nil {
		return repository.BillingHistory{}, err
	}
	bh := repository.BillingHistory{
		ID:            arg.ID,
		UserID:        arg.UserID,
		PlanName:      arg.PlanName,
		Duration:      arg.Duration,
		Amount:        arg.Amount,
		Status:        arg.Status,
		InvoiceID:     arg.InvoiceID,
		TransactionID: arg.TransactionID,
		InvoiceUrl:    arg.InvoiceUrl,
		PaymentMethod: arg.PaymentMethod,
		PaidOn:        arg.PaidOn,
		CreatedAt:     s.Now(),
	}
	s.data.billing = append(s.data.billing, bh)
	return bh, nil
}

func (s *Store) ListBillingHistoryByUser(ctx context.Context, userID uuid.UUID) ([]repository.BillingHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ListBillingHistoryByUser"); err != nil {
		return nil, err
	}
	var out []repository.BillingHistory
	for _, bh := range s.data.billing {
		if bh.UserID == userID {
			out = append(out, bh)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaidOn.After(out[j].PaidOn) })
	return out, nil
}

func (s *Store) UpsertBillingInfo(ctx context.Context, arg repository.UpsertBillingInfoParams) (repository.BillingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("UpsertBillingInfo"); err != nil {
		return repository.BillingInfo{}, err
	}
	bi := repository.BillingInfo{
		UserID:    arg.UserID,
		FullName:  arg.FullName,
		Email:     arg.Email,
		Location:  arg.Location,
		UpdatedAt: s.Now(),
	}
	s.data.billingInfo[arg.UserID] = bi
	return bi, nil
}

func (s *Store) InsertProcessedEvent(ctx context.Context, arg repository.InsertProcessedEventParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("InsertProcessedEvent"); err != nil {
		return 0, err
	}
	if _, ok := s.data.events[arg.EventID]; ok {
		return 0, nil
	}
	s.data.events[arg.EventID] = repository.ProcessedEvent{
		EventID:     arg.EventID,
		Kind:        arg.Kind,
		Payload:     arg.Payload,
		ProcessedAt: s.Now(),
	}
	return 1, nil
}

// -----------------------------------------------------------------------------
// Jobs
// -----------------------------------------------------------------------------

func (s *Store) EnqueueJob(ctx context.Context, arg repository.EnqueueJobParams) (repository.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("EnqueueJob"); err != nil {
		return repository.Job{}, err
	}
	j := repository.Job{
		ID:          arg.ID,
		JobType:     arg.JobType,
		Payload:     arg.Payload,
		Status:      "pending",
		Priority:    arg.Priority,
		MaxAttempts: arg.MaxAttempts,
		ScheduledAt: arg.ScheduledAt,
		CreatedAt:   s.Now(),
	}
	s.data.jobs = append(s.data.jobs, j)
	return j, nil
}

func (s *Store) DequeueJob(ctx context.Context) (repository.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("DequeueJob"); err != nil {
		return repository.Job{}, err
	}
	now := s.Now()
	best := -1
	for i, j := range s.data.jobs {
		if j.Status != "pending" || j.ScheduledAt.After(now) {
			continue
		}
		if best < 0 || j.Priority > s.data.jobs[best].Priority ||
			(j.Priority == s.data.jobs[best].Priority && j.ScheduledAt.Before(s.data.jobs[best].ScheduledAt)) {
			best = i
		}
	}
	if best < 0 {
		return repository.Job{}, sql.ErrNoRows
	}
	return s.data.jobs[best], nil
}

func (s *Store) updateJob(id uuid.UUID, fn func(*repository.Job)) {
	for i := range s.data.jobs {
		if s.data.jobs[i].ID == id {
			fn(&s.data.jobs[i])
			return
		}
	}
}

func (s *Store) UpdateJobStarted(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("UpdateJobStarted"); err != nil {
		return err
	}
	now := s.Now()
	s.updateJob(id, func(j *repository.Job) {
		j.Status = "running"
		j.StartedAt = sql.NullTime{Time: now, Valid: true}
		j.Attempts++
	})
	return nil
}

func (s *Store) UpdateJobCompleted(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("UpdateJobCompleted"); err != nil {
		return err
	}
	now := s.Now()
	s.updateJob(id, func(j *repository.Job) {
		j.Status = "completed"
		j.CompletedAt = sql.NullTime{Time: now, Valid: true}
		j.ErrorMessage = sql.NullString{}
	})
	return nil
}

func (s *Store) UpdateJobFailed(ctx context.Context, arg repository.UpdateJobFailedParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("UpdateJobFailed"); err != nil {
		return err
	}
	now := s.Now()
	s.updateJob(arg.ID, func(j *repository.Job) {
		j.ErrorMessage = arg.ErrorMessage
		if arg.Permanent || j.Attempts >= j.MaxAttempts {
			j.Status = "failed"
			j.CompletedAt = sql.NullTime{Time: now, Valid: true}
			return
		}
		j.Status = "pending"
		j.ScheduledAt = now.Add(time.Duration(1<<uint(j.Attempts)) * 30 * time.Second)
	})
	return nil
}

func (s *Store) RecoverStaleJobs(ctx context.Context, secs float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("RecoverStaleJobs"); err != nil {
		return 0, err
	}
	cutoff := s.Now().Add(-time.Duration(secs * float64(time.Second)))
	var n int64
	for i := range s.data.jobs {
		j := &s.data.jobs[i]
		if j.Status == "running" && j.StartedAt.Valid && j.StartedAt.Time.Before(cutoff) {
			j.Status = "pending"
			j.StartedAt = sql.NullTime{}
			n++
		}
	}
	return n, nil
}
