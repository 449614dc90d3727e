package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jimix91/ticketflow/internal/client"
	"github.com/Jimix91/ticketflow/internal/models"
)

// fakeAPI is an in-memory request layer. It counts calls so tests can
// assert that rejected actions never reach the network.
type fakeAPI struct {
	mu      sync.Mutex
	token   string
	users   []models.User
	tickets []models.Ticket
	now     time.Time

	failAll bool

	calls map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{now: t0, calls: map[string]int{}}
}

func (f *fakeAPI) count(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) find(id int64) (int, bool) {
	for i := range f.tickets {
		if f.tickets[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (f *fakeAPI) SetToken(tok string) { f.mu.Lock(); f.token = tok; f.mu.Unlock() }

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*client.AuthResponse, error) {
	f.count("Login")
	if f.failAll {
		return nil, errors.New("login failed")
	}
	for _, u := range f.users {
		if u.Email == email {
			return &client.AuthResponse{Token: "tok-" + email, User: u}, nil
		}
	}
	return nil, errors.New("invalid credentials")
}

func (f *fakeAPI) Register(ctx context.Context, name, email, password string, role models.Role) (*client.AuthResponse, error) {
	f.count("Register")
	u := models.User{ID: int64(len(f.users) + 100), Name: name, Email: email, Role: role}
	f.users = append(f.users, u)
	return &client.AuthResponse{Token: "tok-" + email, User: u}, nil
}

func (f *fakeAPI) Me(ctx context.Context) (*models.User, error) {
	f.count("Me")
	if f.failAll || f.token == "" {
		return nil, errors.New("unauthorized (status 401)")
	}
	u := f.users[0]
	return &u, nil
}

func (f *fakeAPI) GetUsers(ctx context.Context) ([]models.User, error) {
	f.count("GetUsers")
	if f.failAll {
		return nil, errors.New("users fetch failed")
	}
	return append([]models.User(nil), f.users...), nil
}

func (f *fakeAPI) UpdateMyProfile(ctx context.Context, in client.UpdateProfileInput) (*models.User, error) {
	f.count("UpdateMyProfile")
	u := f.users[0]
	if in.Name != nil {
		u.Name = *in.Name
	}
	f.users[0] = u
	return &u, nil
}

func (f *fakeAPI) GetTickets(ctx context.Context) ([]models.Ticket, error) {
	f.count("GetTickets")
	if f.failAll {
		return nil, errors.New("tickets fetch failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Ticket(nil), f.tickets...), nil
}

func (f *fakeAPI) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	f.count("GetTicketByID")
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.find(id); ok {
		t := f.tickets[i]
		return &t, nil
	}
	return nil, fmt.Errorf("GET /tickets/%d: ticket not found (status 404)", id)
}

func (f *fakeAPI) CreateTicket(ctx context.Context, in client.CreateTicketInput) (*models.Ticket, error) {
	f.count("CreateTicket")
	if f.failAll {
		return nil, errors.New("create failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(time.Second)
	t := models.Ticket{
		ID: int64(len(f.tickets) + 1000), Title: in.Title, Description: in.Description,
		Status: models.StatusOpen, Priority: models.PriorityMedium,
		CreatedAt: f.now, UpdatedAt: f.now,
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	f.tickets = append(f.tickets, t)
	return &t, nil
}

func (f *fakeAPI) UpdateTicket(ctx context.Context, id int64, in client.UpdateTicketInput) (*models.Ticket, error) {
	f.count("UpdateTicket")
	if f.failAll {
		return nil, errors.New("update failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.find(id)
	if !ok {
		return nil, fmt.Errorf("PUT /tickets/%d: ticket not found (status 404)", id)
	}
	t := f.tickets[i]
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.AssignedToID != nil {
		t.AssignedToID = *in.AssignedToID
	}
	f.now = f.now.Add(time.Second)
	t.UpdatedAt = f.now
	f.tickets[i] = t
	return &t, nil
}

func (f *fakeAPI) DeleteTicket(ctx context.Context, id int64) error {
	f.count("DeleteTicket")
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.find(id); ok {
		f.tickets = append(f.tickets[:i], f.tickets[i+1:]...)
	}
	return nil
}

func (f *fakeAPI) GetTicketComments(ctx context.Context, ticketID int64) ([]models.Comment, error) {
	f.count("GetTicketComments")
	return []models.Comment{}, nil
}

func (f *fakeAPI) CreateTicketComment(ctx context.Context, ticketID int64, in client.CreateCommentInput) (*models.Comment, error) {
	f.count("CreateTicketComment")
	return &models.Comment{ID: 1, TicketID: ticketID, Content: in.Content}, nil
}

// manualTimers replaces real notice timers so tests control the clock.
type manualTimers struct {
	mu      sync.Mutex
	pending []func()
}

func (m *manualTimers) after(d time.Duration, f func()) func() {
	m.mu.Lock()
	m.pending = append(m.pending, f)
	m.mu.Unlock()
	return func() {}
}

// advance fires every armed timer, simulating the expiry interval passing.
func (m *manualTimers) advance() {
	m.mu.Lock()
	fns := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, f := range fns {
		f()
	}
}

func newTestBoard(api API, timers *manualTimers) *Board {
	opts := []Option{}
	if timers != nil {
		opts = append(opts, WithTimerFunc(timers.after))
	}
	return New(api, zerolog.Nop(), opts...)
}

func agentBoard(t *testing.T) (*Board, *fakeAPI, *manualTimers) {
	t.Helper()
	api := newFakeAPI()
	api.users = []models.User{{ID: 3, Name: "Ada", Email: "ada@corp.test", Role: models.RoleAgent}}
	api.tickets = []models.Ticket{
		{ID: 5, Title: "VPN down", Status: models.StatusOpen, Priority: models.PriorityHigh,
			CreatedByID: 9, AssignedToID: ptr(3), UpdatedAt: t0},
	}
	timers := &manualTimers{}
	b := newTestBoard(api, timers)
	if err := b.Login(context.Background(), "ada@corp.test", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	return b, api, timers
}

func TestMoveStatusAgentScenario(t *testing.T) {
	b, api, timers := agentBoard(t)

	if err := b.MoveStatus(context.Background(), 5, models.StatusClosed, MoveByDrag); err != nil {
		t.Fatalf("move: %v", err)
	}

	got, ok := b.Store().Get(5)
	if !ok || got.Status != models.StatusClosed {
		t.Fatalf("ticket = %+v", got)
	}
	if !got.UpdatedAt.After(t0) {
		t.Fatal("updatedAt must advance on a move")
	}
	if api.callCount("UpdateTicket") != 1 {
		t.Fatalf("UpdateTicket calls = %d", api.callCount("UpdateTicket"))
	}

	want := "Ticket #5 moved to CLOSED"
	if b.Notice() != want {
		t.Fatalf("notice = %q, want %q", b.Notice(), want)
	}

	// notice clears itself once its interval elapses unobserved
	timers.advance()
	if b.Notice() != "" {
		t.Fatalf("notice = %q after expiry", b.Notice())
	}
}

func TestMoveStatusSameStatusIsNoOp(t *testing.T) {
	b, api, _ := agentBoard(t)
	before := api.totalCalls()

	if err := b.MoveStatus(context.Background(), 5, models.StatusOpen, MoveByDrag); err != nil {
		t.Fatalf("same-status move: %v", err)
	}
	if api.totalCalls() != before {
		t.Fatal("same-status move must not call the request layer")
	}
	if b.Notice() != "" {
		t.Fatal("same-status move must not emit a notice")
	}
	got, _ := b.Store().Get(5)
	if !got.UpdatedAt.Equal(t0) {
		t.Fatal("same-status move must not mutate the store")
	}
}

func TestMoveStatusEmployeeRefused(t *testing.T) {
	api := newFakeAPI()
	api.users = []models.User{{ID: 7, Name: "Bo", Email: "bo@corp.test", Role: models.RoleEmployee}}
	api.tickets = []models.Ticket{
		{ID: 1, Status: models.StatusOpen, CreatedByID: 7, UpdatedAt: t0},
		{ID: 2, Status: models.StatusOpen, CreatedByID: 9, UpdatedAt: t0},
	}
	b := newTestBoard(api, &manualTimers{})
	if err := b.Login(context.Background(), "bo@corp.test", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	before := api.callCount("UpdateTicket")

	// drag on a foreign ticket: silent refusal, no error surfaced
	if err := b.MoveStatus(context.Background(), 2, models.StatusClosed, MoveByDrag); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("err = %v, want ErrNotAllowed", err)
	}
	if b.ErrorMessage() != "" {
		t.Fatal("drag rejection must stay silent")
	}

	// employees cannot drag even their own tickets
	if err := b.MoveStatus(context.Background(), 1, models.StatusClosed, MoveByDrag); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("err = %v, want ErrNotAllowed", err)
	}

	// form move on a foreign ticket surfaces the error
	if err := b.MoveStatus(context.Background(), 2, models.StatusClosed, MoveByForm); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("err = %v, want ErrNotAllowed", err)
	}
	if b.ErrorMessage() == "" {
		t.Fatal("form rejection must surface an error")
	}

	if api.callCount("UpdateTicket") != before {
		t.Fatal("rejected moves must never reach the request layer")
	}
}

func TestMoveStatusStaleTicket(t *testing.T) {
	b, _, _ := agentBoard(t)
	if err := b.MoveStatus(context.Background(), 404, models.StatusClosed, MoveByDrag); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMoveStatusRequestFailureLeavesStore(t *testing.T) {
	b, api, _ := agentBoard(t)
	api.failAll = true

	err := b.MoveStatus(context.Background(), 5, models.StatusClosed, MoveByDrag)
	if err == nil {
		t.Fatal("expected request failure")
	}
	got, _ := b.Store().Get(5)
	if got.Status != models.StatusOpen || !got.UpdatedAt.Equal(t0) {
		t.Fatalf("failed move mutated the store: %+v", got)
	}
	if b.ErrorMessage() == "" {
		t.Fatal("request failure must surface an error string")
	}
	if b.Notice() != "" {
		t.Fatal("failed move must not emit a notice")
	}
}

func TestUpdateTicketEmployeeStatusSubstituted(t *testing.T) {
	api := newFakeAPI()
	api.users = []models.User{{ID: 7, Name: "Bo", Email: "bo@corp.test", Role: models.RoleEmployee}}
	api.tickets = []models.Ticket{
		{ID: 1, Title: "Printer", Status: models.StatusInProgress, CreatedByID: 7, UpdatedAt: t0},
	}
	b := newTestBoard(api, &manualTimers{})
	if err := b.Login(context.Background(), "bo@corp.test", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	title := "Printer jammed"
	closed := models.StatusClosed
	updated, err := b.UpdateTicket(context.Background(), 1, client.UpdateTicketInput{Title: &title, Status: &closed})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title {
		t.Fatalf("title = %q", updated.Title)
	}
	if updated.Status != models.StatusInProgress {
		t.Fatalf("status = %s; employee edits must keep the current status", updated.Status)
	}
}

func TestDeleteTicketRemovesEverywhere(t *testing.T) {
	b, api, _ := agentBoard(t)

	if err := b.DeleteTicket(context.Background(), 5); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := b.Store().Get(5); ok {
		t.Fatal("ticket must leave the store")
	}
	if api.callCount("DeleteTicket") != 1 {
		t.Fatal("delete must reach the request layer exactly once")
	}
}

func TestViewTicketStaleReference(t *testing.T) {
	b, api, _ := agentBoard(t)

	// another session deletes the ticket server-side
	api.mu.Lock()
	api.tickets = nil
	api.mu.Unlock()

	_, err := b.ViewTicket(context.Background(), 5)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, ok := b.Store().Get(5); ok {
		t.Fatal("stale entry must be dropped")
	}
}

func TestQuietRefreshEmitsSingleNotice(t *testing.T) {
	b, api, _ := agentBoard(t)

	// remote side closes the ticket
	api.mu.Lock()
	api.tickets[0].Status = models.StatusClosed
	api.now = api.now.Add(time.Minute)
	api.tickets[0].UpdatedAt = api.now
	api.mu.Unlock()

	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if b.Notice() == "" {
		t.Fatal("remote change in quiet mode must raise a notice")
	}
	first := b.Notice()

	// an identical follow-up poll must not re-notify
	b.DismissNotice()
	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if b.Notice() != "" {
		t.Fatalf("unchanged snapshot re-raised %q (first was %q)", b.Notice(), first)
	}
}

func TestBootstrapIsLoudAndRefreshIsQuiet(t *testing.T) {
	api := newFakeAPI()
	api.users = []models.User{{ID: 1, Name: "Root", Email: "root@corp.test", Role: models.RoleAdmin}}
	api.tickets = []models.Ticket{{ID: 1, Status: models.StatusOpen, CreatedByID: 1, UpdatedAt: t0}}
	b := newTestBoard(api, &manualTimers{})

	// Login runs Bootstrap; the initial load is not a "remote change" notice
	if err := b.Login(context.Background(), "root@corp.test", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if b.Notice() != "" {
		t.Fatalf("bootstrap raised notice %q", b.Notice())
	}
	if b.Store().Len() != 1 {
		t.Fatal("bootstrap must fill the store")
	}
}

func TestRefreshFailureLeavesStoreUntouched(t *testing.T) {
	b, api, _ := agentBoard(t)
	snapBefore := b.Store().Snapshot()

	api.failAll = true
	if err := b.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh failure")
	}
	snapAfter := b.Store().Snapshot()
	if len(snapBefore) != len(snapAfter) || snapBefore[0] != snapAfter[0] {
		t.Fatal("failed refresh must not mutate the store")
	}
	if b.ErrorMessage() == "" {
		t.Fatal("refresh failure must surface an error")
	}
}

func TestResumeClearsTokenOnAuthFailure(t *testing.T) {
	api := newFakeAPI()
	api.failAll = true
	b := newTestBoard(api, &manualTimers{})

	if err := b.Resume(context.Background(), "stale-token"); err == nil {
		t.Fatal("expected resume failure")
	}
	if api.token != "" {
		t.Fatalf("token = %q, must be cleared", api.token)
	}
	if b.Session().Active() {
		t.Fatal("session must stay unauthenticated")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	b, api, _ := agentBoard(t)
	b.Logout()

	if b.Session().Active() {
		t.Fatal("session must be cleared")
	}
	if api.token != "" {
		t.Fatal("token must be revoked from the request layer")
	}
	if b.Store().Len() != 0 {
		t.Fatal("store must be emptied")
	}
	if len(b.Visible()) != 0 {
		t.Fatal("no identity sees no tickets")
	}
}

func TestCreateTicketPrepends(t *testing.T) {
	b, _, _ := agentBoard(t)

	created, err := b.CreateTicket(context.Background(), client.CreateTicketInput{Title: "New laptop"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	snap := b.Store().Snapshot()
	if snap[0].ID != created.ID {
		t.Fatalf("created ticket must be first, order %v", ids(snap))
	}
}

func TestNoticeReplacedNotWipedByStaleTimer(t *testing.T) {
	b, _, timers := agentBoard(t)

	if err := b.MoveStatus(context.Background(), 5, models.StatusInProgress, MoveByDrag); err != nil {
		t.Fatalf("move: %v", err)
	}

	// hold on to the first notice's armed timer before the second move
	timers.mu.Lock()
	stale := append([]func(){}, timers.pending...)
	timers.pending = nil
	timers.mu.Unlock()

	if err := b.MoveStatus(context.Background(), 5, models.StatusClosed, MoveByDrag); err != nil {
		t.Fatalf("move: %v", err)
	}
	want := "Ticket #5 moved to CLOSED"
	if b.Notice() != want {
		t.Fatalf("notice = %q", b.Notice())
	}

	// the first notice's timer firing late must not clear the newer notice
	for _, f := range stale {
		f()
	}
	if b.Notice() != want {
		t.Fatalf("stale timer wiped notice, got %q", b.Notice())
	}
}
