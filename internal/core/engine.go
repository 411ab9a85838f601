package core

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fentiaanyun/auction-game/internal/clock"
	"github.com/fentiaanyun/auction-game/internal/domain"
	"github.com/fentiaanyun/auction-game/internal/port"
)

// entry pairs an auction with its lock. A single auction record is the unit
// of mutual exclusion: the tick processor, the bid path and settlement all
// lock the entry before reading or writing it. Different auctions are
// independent.
type entry struct {
	mu sync.Mutex
	a  *domain.Auction
}

// Engine owns the live auction set and drives every state transition. The
// in-memory state is authoritative; repository and cache writes are
// dispatched fire-and-forget after a transition completes.
type Engine struct {
	repo     port.Repository
	users    port.UserStore
	cache    port.Cache
	notifier port.Notifier
	clk      clock.Clock
	cfg      Config

	rngMu sync.Mutex
	rng   *rand.Rand

	mu       sync.RWMutex
	auctions map[int64]*entry
	order    []int64 // board ordering, newest first
	history  map[int64]domain.Auction

	events *Broadcaster

	// syncEffects makes dispatch run inline; tests set it for determinism.
	syncEffects bool
}

type Option func(*Engine)

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clk = c }
}

// WithRand injects the randomness source for the synthetic bidder (seeded in
// tests for determinism).
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithNotifier(n port.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithCache(c port.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

func NewEngine(repo port.Repository, users port.UserStore, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		users:    users,
		clk:      clock.NewSystem(),
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		auctions: make(map[int64]*entry),
		history:  make(map[int64]domain.Auction),
		events:   NewBroadcaster(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe exposes the engine's event stream.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.events.Subscribe()
}

// Load hydrates the live set and history from the repository (used on startup).
func (e *Engine) Load(ctx context.Context) error {
	if e.repo == nil {
		return nil
	}
	auctions, err := e.repo.LoadAuctions(ctx)
	if err != nil {
		return err
	}
	hist, err := e.repo.LoadHistory(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range auctions {
		if a.RegisteredUsers == nil {
			a.RegisteredUsers = []string{}
		}
		if a.BidHistory == nil {
			a.BidHistory = []domain.Bid{}
		}
		if a.Likes == nil {
			a.Likes = []string{}
		}
		a.LikesCount = len(a.Likes)
		e.auctions[a.ID] = &entry{a: a}
		e.order = append(e.order, a.ID)
	}
	for _, h := range hist {
		e.history[h.ID] = h
	}
	slog.Info("auction data loaded", "auctions", len(e.auctions), "history", len(e.history))
	return nil
}

// CreateAuctionInput carries admin-supplied fields for a timed auction.
type CreateAuctionInput struct {
	Title              string
	Artist             string
	Category           domain.Category
	Image              string
	Description        string
	StartPrice         decimal.Decimal
	ReservePrice       decimal.Decimal
	ScheduledStartTime *time.Time
	ScheduledEndTime   *time.Time
}

func (in CreateAuctionInput) validate(now time.Time) error {
	if in.Title == "" || in.Artist == "" || in.Image == "" || in.Description == "" ||
		!in.StartPrice.IsPositive() || !in.ReservePrice.IsPositive() {
		return domain.ErrMissingFields
	}
	if in.ReservePrice.LessThan(in.StartPrice) {
		return domain.ErrReserveBelowStart
	}
	if in.ScheduledStartTime != nil && in.ScheduledEndTime != nil &&
		!in.ScheduledStartTime.Before(*in.ScheduledEndTime) {
		return domain.ErrInvalidSchedule
	}
	if in.ScheduledEndTime != nil && !in.ScheduledEndTime.After(now) {
		return domain.ErrInvalidSchedule
	}
	return nil
}

// CreateAuction publishes a timed auction. Without a scheduled start it opens
// immediately; a future start leaves it Pending for the tick to open.
func (e *Engine) CreateAuction(ctx context.Context, in CreateAuctionInput) (*domain.Auction, error) {
	now := e.clk.Now()
	if err := in.validate(now); err != nil {
		return nil, err
	}

	status := domain.Pending
	timeLeft := e.cfg.DefaultDuration
	switch {
	case in.ScheduledStartTime == nil || !in.ScheduledStartTime.After(now):
		status = domain.Active
		if in.ScheduledEndTime != nil {
			timeLeft = int(in.ScheduledEndTime.Sub(now).Seconds())
		}
	default:
		timeLeft = 0
	}

	a := &domain.Auction{
		Title:              in.Title,
		Artist:             in.Artist,
		Category:           in.Category,
		Image:              in.Image,
		Description:        in.Description,
		StartPrice:         in.StartPrice,
		CurrentBid:         in.StartPrice,
		ReservePrice:       in.ReservePrice,
		Status:             status,
		TimeLeft:           timeLeft,
		ScheduledStartTime: in.ScheduledStartTime,
		ScheduledEndTime:   in.ScheduledEndTime,
		IsScheduled:        in.ScheduledStartTime != nil || in.ScheduledEndTime != nil,
		RegisteredUsers:    []string{},
		BidHistory:         []domain.Bid{},
		Likes:              []string{},
		CreatedAt:          now,
	}
	if err := e.insert(a, now); err != nil {
		return nil, err
	}

	slog.Info("auction published", "auction", a.ID, "title", a.Title, "status", a.Status)
	e.events.Publish(Event{Type: EventAuctionCreated, AuctionID: a.ID, Payload: a.Snapshot(), Time: now})
	e.persistBoard(ctx)
	return a, nil
}

// CreateLiveAuctionInput carries admin-supplied fields for a live auction.
// DurationMinutes bounds come from Config.
type CreateLiveAuctionInput struct {
	Title           string
	Artist          string
	Category        domain.Category
	Image           string
	Description     string
	StartPrice      decimal.Decimal
	ReservePrice    decimal.Decimal
	DurationMinutes int
}

// CreateLiveAuction publishes a live auction in the waiting phase. It never
// starts on its own; an operator calls StartLiveAuction.
func (e *Engine) CreateLiveAuction(ctx context.Context, in CreateLiveAuctionInput) (*domain.Auction, error) {
	if in.Title == "" || in.Artist == "" || in.Image == "" || in.Description == "" ||
		!in.StartPrice.IsPositive() || !in.ReservePrice.IsPositive() {
		return nil, domain.ErrMissingFields
	}
	if in.ReservePrice.LessThan(in.StartPrice) {
		return nil, domain.ErrReserveBelowStart
	}
	minutes := in.DurationMinutes
	if minutes == 0 {
		minutes = 3
	}
	if minutes < e.cfg.MinLiveDuration || minutes > e.cfg.MaxLiveDuration {
		return nil, domain.ErrInvalidDuration
	}

	now := e.clk.Now()
	a := &domain.Auction{
		Title:           in.Title,
		Artist:          in.Artist,
		Category:        in.Category,
		Image:           in.Image,
		Description:     in.Description,
		StartPrice:      in.StartPrice,
		CurrentBid:      in.StartPrice,
		ReservePrice:    in.ReservePrice,
		Status:          domain.Pending,
		IsLive:          true,
		LivePhase:       domain.PhaseWaiting,
		LiveDuration:    minutes * 60,
		RegisteredUsers: []string{},
		BidHistory:      []domain.Bid{},
		Likes:           []string{},
		CreatedAt:       now,
	}
	if err := e.insert(a, now); err != nil {
		return nil, err
	}

	slog.Info("live auction published", "auction", a.ID, "title", a.Title, "duration_min", minutes)
	e.events.Publish(Event{Type: EventAuctionCreated, AuctionID: a.ID, Payload: a.Snapshot(), Time: now})
	e.persistBoard(ctx)
	return a, nil
}

// StartLiveAuction moves a waiting live auction into its bidding phase.
func (e *Engine) StartLiveAuction(ctx context.Context, auctionID int64) error {
	en := e.lookup(auctionID)
	if en == nil {
		return domain.ErrAuctionNotFound
	}
	en.mu.Lock()
	a := en.a
	if !a.IsLive {
		en.mu.Unlock()
		return domain.ErrNotLiveAuction
	}
	if a.Status == domain.Ended {
		en.mu.Unlock()
		return domain.ErrAuctionEnded
	}
	duration := a.LiveDuration
	if duration == 0 {
		duration = e.cfg.DefaultDuration
	}
	a.Status = domain.Active
	a.LivePhase = domain.PhaseBidding
	a.LivePhaseTime = duration
	a.TimeLeft = duration
	snap := a.Snapshot()
	en.mu.Unlock()

	now := e.clk.Now()
	slog.Info("live auction started", "auction", auctionID, "title", snap.Title, "duration_sec", duration)
	e.notify(ctx, "Live auction started: "+snap.Title, port.SeverityInfo)
	e.events.Publish(Event{Type: EventAuctionStarted, AuctionID: auctionID, Payload: snap, Time: now})
	e.persistBoard(ctx)
	return nil
}

// UpdateAuction edits a non-ended timed auction and re-derives its status
// from the new schedule.
func (e *Engine) UpdateAuction(ctx context.Context, auctionID int64, in CreateAuctionInput) (*domain.Auction, error) {
	now := e.clk.Now()
	if err := in.validate(now); err != nil {
		return nil, err
	}
	en := e.lookup(auctionID)
	if en == nil {
		return nil, domain.ErrAuctionNotFound
	}
	en.mu.Lock()
	a := en.a
	if a.Status == domain.Ended {
		en.mu.Unlock()
		return nil, domain.ErrAuctionEnded
	}
	a.Title = in.Title
	a.Artist = in.Artist
	a.Category = in.Category
	a.Image = in.Image
	a.Description = in.Description
	a.StartPrice = in.StartPrice
	a.ReservePrice = in.ReservePrice
	if !a.HasBids() {
		a.CurrentBid = in.StartPrice
	}
	// Live auctions have no schedule and only ever start through
	// StartLiveAuction; re-deriving status here would open one without an
	// operator and leave its phase at WAITING.
	if !a.IsLive {
		a.ScheduledStartTime = in.ScheduledStartTime
		a.ScheduledEndTime = in.ScheduledEndTime
		a.IsScheduled = in.ScheduledStartTime != nil || in.ScheduledEndTime != nil

		switch {
		case in.ScheduledStartTime != nil && in.ScheduledStartTime.After(now) && a.Status == domain.Active:
			a.Status = domain.Pending
			a.TimeLeft = 0
			a.ExtendedTime = 0
		case (in.ScheduledStartTime == nil || !in.ScheduledStartTime.After(now)) && a.Status == domain.Pending:
			a.Status = domain.Active
			if in.ScheduledEndTime != nil {
				a.TimeLeft = int(in.ScheduledEndTime.Sub(now).Seconds())
			} else {
				a.TimeLeft = e.cfg.DefaultDuration
			}
		}
	}
	snap := a.Snapshot()
	en.mu.Unlock()

	slog.Info("auction updated", "auction", auctionID, "title", snap.Title, "status", snap.Status)
	e.events.Publish(Event{Type: EventAuctionUpdated, AuctionID: auctionID, Payload: snap, Time: now})
	e.persistBoard(ctx)
	return &snap, nil
}

// DeleteAuction removes an auction from the live set. An auction that
// reached Active still goes through settlement so a forced end cannot skip
// winner reconciliation or archival.
func (e *Engine) DeleteAuction(ctx context.Context, auctionID int64) error {
	en := e.lookup(auctionID)
	if en == nil {
		return domain.ErrAuctionNotFound
	}
	now := e.clk.Now()

	en.mu.Lock()
	if en.a.Status != domain.Pending {
		e.settleLocked(ctx, en.a, now)
	}
	en.mu.Unlock()

	e.mu.Lock()
	delete(e.auctions, auctionID)
	for i, id := range e.order {
		if id == auctionID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	if h, ok := e.history[auctionID]; ok {
		t := now
		h.DeletedAt = &t
		e.history[auctionID] = h
	}
	e.mu.Unlock()

	slog.Info("auction deleted", "auction", auctionID)
	e.events.Publish(Event{Type: EventAuctionUpdated, AuctionID: auctionID, Time: now})
	e.persistBoard(ctx)
	e.persistHistory(ctx)
	return nil
}

// RegistrationInfo is optional contact detail captured at signup.
type RegistrationInfo struct {
	RealName string
	Phone    string
	Note     string
}

// Register adds a user to the auction's participant set. Bidding is gated on
// membership.
func (e *Engine) Register(ctx context.Context, auctionID int64, username string, info RegistrationInfo) error {
	en := e.lookup(auctionID)
	if en == nil {
		return domain.ErrAuctionNotFound
	}
	user, err := e.users.GetUser(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	now := e.clk.Now()
	en.mu.Lock()
	a := en.a
	if a.IsRegistered(username) {
		en.mu.Unlock()
		return domain.ErrAlreadyRegistered
	}
	a.RegisteredUsers = append(a.RegisteredUsers, username)
	title := a.Title
	en.mu.Unlock()

	user.Registrations = append(user.Registrations, domain.Registration{
		AuctionID: auctionID,
		Title:     title,
		Time:      now,
		RealName:  info.RealName,
		Phone:     info.Phone,
		Note:      info.Note,
	})
	e.dispatch(func(ctx context.Context) error { return e.users.SaveUser(ctx, user) })

	slog.Info("registration accepted", "auction", auctionID, "user", username)
	e.persistBoard(ctx)
	return nil
}

// ToggleLike flips a user's like on a timed auction and returns the new
// state. Engagement only; it never influences the lifecycle.
func (e *Engine) ToggleLike(ctx context.Context, auctionID int64, username string) (bool, error) {
	en := e.lookup(auctionID)
	if en == nil {
		return false, domain.ErrAuctionNotFound
	}
	en.mu.Lock()
	a := en.a
	if a.IsLive {
		en.mu.Unlock()
		return false, domain.ErrLikeNotSupported
	}
	liked := false
	if a.Liked(username) {
		for i, u := range a.Likes {
			if u == username {
				a.Likes = append(a.Likes[:i], a.Likes[i+1:]...)
				break
			}
		}
	} else {
		a.Likes = append(a.Likes, username)
		liked = true
	}
	a.LikesCount = len(a.Likes)
	en.mu.Unlock()

	e.persistBoard(ctx)
	return liked, nil
}

// GetAuction returns a snapshot of one auction.
func (e *Engine) GetAuction(ctx context.Context, auctionID int64) (*domain.Auction, error) {
	en := e.lookup(auctionID)
	if en == nil {
		return nil, domain.ErrAuctionNotFound
	}
	en.mu.Lock()
	snap := en.a.Snapshot()
	en.mu.Unlock()
	return &snap, nil
}

// ListFilter narrows the board listing. Zero value means no filtering.
type ListFilter struct {
	Category domain.Category
	Status   domain.AuctionStatus
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
}

func (f ListFilter) empty() bool {
	return f.Category == "" && f.Status == "" && f.PriceMin == nil && f.PriceMax == nil
}

func (f ListFilter) matches(a *domain.Auction) bool {
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.PriceMin != nil && a.CurrentBid.LessThan(*f.PriceMin) {
		return false
	}
	if f.PriceMax != nil && a.CurrentBid.GreaterThan(*f.PriceMax) {
		return false
	}
	return true
}

// ListAuctions returns board snapshots, newest first. Unfiltered reads go
// through the cache first.
func (e *Engine) ListAuctions(ctx context.Context, filter ListFilter) []domain.Auction {
	if filter.empty() && e.cache != nil {
		if board, err := e.cache.GetBoard(ctx); err == nil && board != nil {
			return board
		}
	}
	board := e.boardSnapshot()
	if filter.empty() {
		return board
	}
	out := make([]domain.Auction, 0, len(board))
	for i := range board {
		if filter.matches(&board[i]) {
			out = append(out, board[i])
		}
	}
	return out
}

// History returns archived auctions, oldest first.
func (e *Engine) History(ctx context.Context) []domain.Auction {
	e.mu.RLock()
	out := make([]domain.Auction, 0, len(e.history))
	for _, h := range e.history {
		out = append(out, h)
	}
	e.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].EndTime, out[j].EndTime
		if ti == nil || tj == nil {
			return out[i].ID < out[j].ID
		}
		return ti.Before(*tj)
	})
	return out
}

// GetUserSummary reads a user through the store for external callers.
func (e *Engine) GetUserSummary(ctx context.Context, username string) (*domain.User, error) {
	u, err := e.users.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// insert assigns a creation-time id and adds the auction to the live set.
// Ids are UnixMilli timestamps; a collision is a creation error, not a retry.
func (e *Engine) insert(a *domain.Auction, now time.Time) error {
	id := now.UnixMilli()
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.auctions[id]; ok {
		return domain.ErrDuplicateAuctionID
	}
	if _, ok := e.history[id]; ok {
		return domain.ErrDuplicateAuctionID
	}
	a.ID = id
	e.auctions[id] = &entry{a: a}
	e.order = append([]int64{id}, e.order...)
	return nil
}

func (e *Engine) lookup(auctionID int64) *entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.auctions[auctionID]
}

// entriesSnapshot returns the current entries in board order. Callers lock
// each entry individually.
func (e *Engine) entriesSnapshot() []*entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*entry, 0, len(e.order))
	for _, id := range e.order {
		if en, ok := e.auctions[id]; ok {
			out = append(out, en)
		}
	}
	return out
}

func (e *Engine) boardSnapshot() []domain.Auction {
	entries := e.entriesSnapshot()
	out := make([]domain.Auction, 0, len(entries))
	for _, en := range entries {
		en.mu.Lock()
		out = append(out, en.a.Snapshot())
		en.mu.Unlock()
	}
	return out
}

// persistBoard dispatches a board write to the repository and cache. The
// caller's in-memory transition has already completed; the write is never
// awaited.
func (e *Engine) persistBoard(ctx context.Context) {
	e.dispatch(func(ctx context.Context) error {
		board := e.boardSnapshot()
		if e.cache != nil {
			if err := e.cache.SetBoard(ctx, board); err != nil {
				slog.Warn("board cache write failed", "err", err)
			}
		}
		if e.repo == nil {
			return nil
		}
		return e.repo.SaveAuctions(ctx, board)
	})
}

func (e *Engine) persistHistory(ctx context.Context) {
	e.dispatch(func(ctx context.Context) error {
		if e.repo == nil {
			return nil
		}
		return e.repo.SaveHistory(ctx, e.History(ctx))
	})
}

// dispatch runs a side effect on its own goroutine. In-memory state stays
// authoritative for the process; a failed write is logged and left to the
// collaborator to retry.
func (e *Engine) dispatch(fn func(ctx context.Context) error) {
	if e.syncEffects {
		if err := fn(context.Background()); err != nil {
			slog.Warn("persistence write failed", "err", err)
		}
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			slog.Warn("persistence write failed", "err", err)
		}
	}()
}

func (e *Engine) notify(ctx context.Context, message string, severity port.Severity) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, message, severity)
}

func (e *Engine) randFloat() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64()
}

func (e *Engine) randIntn(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(n)
}
