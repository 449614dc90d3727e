// Package board is the client-side ticket state and access-control engine:
// it owns the in-memory ticket collection and user directory, reconciles
// them against server polls, derives per-role visibility, and enforces the
// status-move protocol. Rendering, routing, and storage of the auth token
// across restarts belong to the caller.
package board

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jimix91/ticketflow/internal/client"
	"github.com/Jimix91/ticketflow/internal/models"
)

// API is the slice of the request layer the board consumes. *client.Client
// satisfies it; tests substitute a fake.
type API interface {
	SetToken(tok string)
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Register(ctx context.Context, name, email, password string, role models.Role) (*client.AuthResponse, error)
	Me(ctx context.Context) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	UpdateMyProfile(ctx context.Context, in client.UpdateProfileInput) (*models.User, error)
	GetTickets(ctx context.Context) ([]models.Ticket, error)
	GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error)
	CreateTicket(ctx context.Context, in client.CreateTicketInput) (*models.Ticket, error)
	UpdateTicket(ctx context.Context, id int64, in client.UpdateTicketInput) (*models.Ticket, error)
	DeleteTicket(ctx context.Context, id int64) error
	GetTicketComments(ctx context.Context, ticketID int64) ([]models.Comment, error)
	CreateTicketComment(ctx context.Context, ticketID int64, in client.CreateCommentInput) (*models.Comment, error)
}

// NoticeTTL is how long a transient move/refresh notice stays visible when
// nobody dismisses it.
const NoticeTTL = 2500 * time.Millisecond

type Board struct {
	api     API
	session *Session
	store   *Store
	log     zerolog.Logger

	mu           sync.Mutex
	notice       string
	noticeSeq    int
	cancelNotice func()
	errMsg       string
	loading      bool

	noticeTTL time.Duration
	// afterFunc schedules the notice expiry; swapped out in tests to drive
	// simulated time. Returns a cancel func.
	afterFunc func(d time.Duration, f func()) func()
}

type Option func(*Board)

func WithNoticeTTL(d time.Duration) Option {
	return func(b *Board) { b.noticeTTL = d }
}

func WithTimerFunc(fn func(d time.Duration, f func()) func()) Option {
	return func(b *Board) { b.afterFunc = fn }
}

func New(a API, log zerolog.Logger, opts ...Option) *Board {
	b := &Board{
		api:       a,
		session:   NewSession(),
		store:     NewStore(),
		log:       log.With().Str("component", "board").Logger(),
		noticeTTL: NoticeTTL,
		afterFunc: func(d time.Duration, f func()) func() {
			t := time.AfterFunc(d, f)
			return func() { t.Stop() }
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) Session() *Session { return b.session }
func (b *Board) Store() *Store     { return b.store }

// Visible returns the tickets the current identity is allowed to see, in
// display order.
func (b *Board) Visible() []models.Ticket {
	return Scope(b.session.Identity(), b.store.Snapshot())
}

// VisibleSummary counts the visible tickets per status column.
func (b *Board) VisibleSummary() Summary {
	return Summarize(b.Visible())
}

func (b *Board) Users() []models.User { return b.store.Users() }

// Loading reports whether a loud fetch is in flight.
func (b *Board) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Notice returns the current transient notice, or "" when none is active.
func (b *Board) Notice() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notice
}

// DismissNotice clears the notice before its expiry.
func (b *Board) DismissNotice() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearNoticeLocked()
}

// ErrorMessage returns the last user-visible error, or "".
func (b *Board) ErrorMessage() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errMsg
}

func (b *Board) ClearError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errMsg = ""
}

func (b *Board) setError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errMsg = err.Error()
}

// setNotice replaces the active notice and arms a fresh expiry timer. A
// stale timer firing after replacement must not wipe the newer notice,
// hence the sequence check.
func (b *Board) setNotice(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearNoticeLocked()
	b.notice = msg
	b.noticeSeq++
	seq := b.noticeSeq
	b.cancelNotice = b.afterFunc(b.noticeTTL, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.noticeSeq == seq {
			b.notice = ""
			b.cancelNotice = nil
		}
	})
}

func (b *Board) clearNoticeLocked() {
	if b.cancelNotice != nil {
		b.cancelNotice()
		b.cancelNotice = nil
	}
	b.notice = ""
}

func (b *Board) setLoading(v bool) {
	b.mu.Lock()
	b.loading = v
	b.mu.Unlock()
}

// Login authenticates, installs the token on the request layer, and runs
// the loud bootstrap fetch.
func (b *Board) Login(ctx context.Context, email, password string) error {
	resp, err := b.api.Login(ctx, email, password)
	if err != nil {
		b.setError(err)
		return err
	}
	b.api.SetToken(resp.Token)
	b.session.Establish(resp.User, resp.Token)
	b.log.Info().Int64("user", resp.User.ID).Str("role", string(resp.User.Role)).Msg("session established")
	return b.Bootstrap(ctx)
}

func (b *Board) Register(ctx context.Context, name, email, password string, role models.Role) error {
	resp, err := b.api.Register(ctx, name, email, password, role)
	if err != nil {
		b.setError(err)
		return err
	}
	b.api.SetToken(resp.Token)
	b.session.Establish(resp.User, resp.Token)
	return b.Bootstrap(ctx)
}

// Resume restores a persisted token. A failed identity fetch clears the
// token and leaves the board unauthenticated.
func (b *Board) Resume(ctx context.Context, token string) error {
	b.api.SetToken(token)
	u, err := b.api.Me(ctx)
	if err != nil {
		b.api.SetToken("")
		b.log.Warn().Err(err).Msg("stored session rejected")
		return err
	}
	b.session.Establish(*u, token)
	return b.Bootstrap(ctx)
}

func (b *Board) Logout() {
	b.session.Clear()
	b.api.SetToken("")
	b.store.ReplaceAll(nil)
	b.store.ReplaceUsers(nil)
	b.mu.Lock()
	b.clearNoticeLocked()
	b.errMsg = ""
	b.mu.Unlock()
	b.log.Info().Msg("session cleared")
}

// UpdateProfile edits the current user's own record; the session identity
// and the directory entry are replaced wholesale with the server's copy.
func (b *Board) UpdateProfile(ctx context.Context, in client.UpdateProfileInput) error {
	u, err := b.api.UpdateMyProfile(ctx, in)
	if err != nil {
		b.setError(err)
		return err
	}
	b.session.Establish(*u, b.session.Token())
	b.store.UpsertUser(*u)
	return nil
}

// Bootstrap is the loud initial fetch: it shows the loading state while
// pulling users and tickets.
func (b *Board) Bootstrap(ctx context.Context) error {
	b.setLoading(true)
	defer b.setLoading(false)
	return b.refresh(ctx, false)
}

// Refresh is the quiet fetch used by the poll scheduler: no loading state,
// and a remote change raises a transient notice.
func (b *Board) Refresh(ctx context.Context) error {
	return b.refresh(ctx, true)
}

func (b *Board) refresh(ctx context.Context, quiet bool) error {
	users, err := b.api.GetUsers(ctx)
	if err != nil {
		b.setError(err)
		return err
	}
	tickets, err := b.api.GetTickets(ctx)
	if err != nil {
		b.setError(err)
		return err
	}
	// Both fetches succeeded; only now touch the store.
	b.store.ReplaceUsers(users)
	changed := b.store.ReplaceAll(tickets)
	if changed && quiet {
		b.setNotice("Tickets updated in the background")
	}
	if changed {
		b.log.Debug().Int("tickets", len(tickets)).Bool("quiet", quiet).Msg("remote change merged")
	}
	return nil
}
