package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/outreachcrm/sendpool/config"
	"github.com/outreachcrm/sendpool/dto"
	er "github.com/outreachcrm/sendpool/internal/errors"
	"github.com/outreachcrm/sendpool/internal/enum"
	"github.com/outreachcrm/sendpool/internal/logger"
	"github.com/outreachcrm/sendpool/internal/models"
	"github.com/outreachcrm/sendpool/internal/utils"
)

// Wednesday, 12:00 UTC. Week start (Monday) is March 3rd.
var baseTime = time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: baseTime}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeAccountRepo struct {
	mu         sync.Mutex
	accounts   map[string]*models.SendingAccount
	saveErr    error
	stateSaves int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[string]*models.SendingAccount{}}
}

func (r *fakeAccountRepo) key(workspace, id string) string {
	return workspace + "|" + id
}

func (r *fakeAccountRepo) GetAccounts(ctx context.Context) ([]*models.SendingAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SendingAccount
	for _, acc := range r.accounts {
		cp := *acc
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeAccountRepo) GetAccountsForWorkspace(ctx context.Context, workspace string) ([]*models.SendingAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SendingAccount
	for _, acc := range r.accounts {
		if acc.Workspace == workspace {
			cp := *acc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) GetAccount(ctx context.Context, workspace, id string) (*models.SendingAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[r.key(workspace, id)]
	if !ok {
		return nil, er.ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (r *fakeAccountRepo) SaveAccount(ctx context.Context, account *models.SendingAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if account.ID == "" {
		account.ID = utils.GenerateNanoIDWithPrefix("acct", 16)
	}
	cp := *account
	r.accounts[r.key(account.Workspace, account.ID)] = &cp
	return nil
}

func (r *fakeAccountRepo) SaveSchedulingState(ctx context.Context, account *models.SendingAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.stateSaves++
	cp := *account
	r.accounts[r.key(account.Workspace, account.ID)] = &cp
	return nil
}

func (r *fakeAccountRepo) DeleteAccount(ctx context.Context, workspace, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, r.key(workspace, id))
	return nil
}

func (r *fakeAccountRepo) setSaveErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

func (r *fakeAccountRepo) stateSaveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateSaves
}

type fakePublisher struct {
	mu     sync.Mutex
	events []dto.AccountEvent
}

func (p *fakePublisher) PublishAccountEvent(ctx context.Context, event dto.AccountEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) eventNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for _, ev := range p.events {
		names = append(names, ev.Event)
	}
	return names
}

func testConfig() *config.SchedulerConfig {
	return &config.SchedulerConfig{
		ReservationTTL:            30 * time.Second,
		DefaultCooldown:           30 * time.Minute,
		MaxCooldown:               6 * time.Hour,
		WeeklyResetWeekday:        1,
		WarmupSendsToAdvance:      []int{50, 150, 300},
		WarmupMinDays:             []int{7, 14, 21},
		WarmupMinReputation:       []int{60, 70, 80},
		WarmupCapacityMultipliers: []float64{0.2, 0.5, 0.8, 1.0},
		ReputationFloor:           30,
		ConsecutiveFailureLimit:   2,
		ReputationSuccessDelta:    1,
		ReputationThrottleDelta:   -5,
		ReputationFatalDelta:      -20,
		PersistMaxRetries:         0,
		PersistBackoff:            time.Millisecond,
		HealthNearLimitMargin:     2,
	}
}

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestService(repo *fakeAccountRepo, pub *fakePublisher) (*schedulerService, *fakeClock) {
	clock := newFakeClock()
	var svc *schedulerService
	if pub != nil {
		svc = NewSchedulerService(testConfig(), testLogger(), repo, pub).(*schedulerService)
	} else {
		svc = NewSchedulerService(testConfig(), testLogger(), repo, nil).(*schedulerService)
	}
	svc.now = clock.Now
	return svc, clock
}

func workspaceCtx(workspace string) context.Context {
	ctx := utils.WithCustomContext(context.Background(), &utils.CustomContext{AppSource: "test"})
	return utils.SetWorkspaceInContext(ctx, workspace)
}

func testAccount(id string, opts ...func(*models.SendingAccount)) *models.SendingAccount {
	acc := &models.SendingAccount{
		ID:                id,
		Workspace:         "ws1",
		Channel:           enum.ChannelEmail,
		Status:            enum.AccountStatusActive,
		WarmupStatus:      enum.WarmupHot,
		Reputation:        50,
		DailyLimit:        10,
		WeeklyLimit:       50,
		Timezone:          "UTC",
		DailyPeriodStart:  dailyPeriodStart(baseTime, time.UTC),
		WeeklyPeriodStart: weeklyPeriodStart(baseTime, time.UTC, time.Monday),
	}
	for _, opt := range opts {
		opt(acc)
	}
	return acc
}
