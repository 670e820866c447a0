package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachcrm/sendpool/internal/enum"
	er "github.com/outreachcrm/sendpool/internal/errors"
	"github.com/outreachcrm/sendpool/internal/models"
	"github.com/outreachcrm/sendpool/internal/utils"
)

func seedService(t *testing.T, pub *fakePublisher, accounts ...*models.SendingAccount) (*schedulerService, *fakeAccountRepo, *fakeClock) {
	t.Helper()
	repo := newFakeAccountRepo()
	for _, acc := range accounts {
		require.NoError(t, repo.SaveAccount(context.Background(), acc))
	}
	svc, clock := newTestService(repo, pub)
	require.NoError(t, svc.HydratePool(context.Background()))
	return svc, repo, clock
}

func TestSelectAccount_Validation(t *testing.T) {
	svc, _, _ := seedService(t, nil, testAccount("a1"))

	t.Run("workspace required", func(t *testing.T) {
		_, err := svc.SelectAccount(context.Background(), enum.ChannelEmail, models.RotationPolicy{})
		assert.ErrorIs(t, err, er.ErrWorkspaceMissing)
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := svc.SelectAccount(workspaceCtx("ws1"), "carrier_pigeon", models.RotationPolicy{})
		assert.ErrorIs(t, err, er.ErrUnknownChannel)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := svc.SelectAccount(workspaceCtx("ws1"), enum.ChannelEmail, models.RotationPolicy{Strategy: "random"})
		assert.ErrorIs(t, err, er.ErrUnknownStrategy)
	})

	t.Run("empty strategy defaults to round robin", func(t *testing.T) {
		res, err := svc.SelectAccount(workspaceCtx("ws1"), enum.ChannelEmail, models.RotationPolicy{})
		require.NoError(t, err)
		assert.Equal(t, "a1", res.AccountID)
		assert.True(t, strings.HasPrefix(res.ID, "resv_"))
	})
}

func TestSelectAccount_ChannelScoping(t *testing.T) {
	email := testAccount("a1")
	linkedin := testAccount("a2", func(a *models.SendingAccount) { a.Channel = enum.ChannelLinkedinPersonal })
	svc, _, _ := seedService(t, nil, email, linkedin)

	res, err := svc.SelectAccount(workspaceCtx("ws1"), enum.ChannelLinkedinPersonal, models.RotationPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "a2", res.AccountID)

	_, err = svc.SelectAccount(workspaceCtx("ws1"), enum.ChannelLinkedinSalesNav, models.RotationPolicy{})
	assert.ErrorIs(t, err, er.ErrPoolExhausted)
}

func TestSelectAccount_WorkspaceScoping(t *testing.T) {
	a1 := testAccount("a1")
	a2 := testAccount("a2", func(a *models.SendingAccount) { a.Workspace = "ws2" })
	svc, _, _ := seedService(t, nil, a1, a2)

	res, err := svc.SelectAccount(workspaceCtx("ws2"), enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "a2", res.AccountID)

	accounts, err := svc.ListAccounts(workspaceCtx("ws1"))
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "a1", accounts[0].ID)
}

func TestSelectAccount_ReservationHoldsCapacity(t *testing.T) {
	acc := testAccount("a1", func(a *models.SendingAccount) { a.DailyUsed = 9 })
	svc, _, _ := seedService(t, nil, acc)
	ctx := workspaceCtx("ws1")

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)

	// the single remaining unit is held by the reservation
	_, err = svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	assert.ErrorIs(t, err, er.ErrPoolExhausted)

	// abandoning releases it without consuming quota
	require.NoError(t, svc.RecordSendResult(ctx, res.ID, enum.OutcomeAbandoned))

	res2, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "a1", res2.AccountID)
}

func TestSelectAccount_NoDoubleBookingUnderConcurrency(t *testing.T) {
	acc := testAccount("a1", func(a *models.SendingAccount) { a.DailyUsed = 9 })
	svc, _, _ := seedService(t, nil, acc)
	ctx := workspaceCtx("ws1")

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	granted := 0
	for err := range results {
		if err == nil {
			granted++
		} else {
			assert.ErrorIs(t, err, er.ErrPoolExhausted)
		}
	}
	assert.Equal(t, 1, granted)
}

func TestRecordSendResult_ConcurrentSettleNeverOverflows(t *testing.T) {
	// selection and settlement race on the same account; the reservation must
	// keep holding its unit until the commit lands, so a concurrent selector
	// can never push usage past the limit
	svc, _, _ := seedService(t, nil, testAccount("a1"))
	ctx := workspaceCtx("ws1")

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*16)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
				if errors.Is(err, er.ErrPoolExhausted) {
					return
				}
				if err != nil {
					errs <- err
					return
				}
				if err := svc.RecordSendResult(ctx, res.ID, enum.OutcomeSuccess); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NotErrorIs(t, err, er.ErrCounterOverflow)
		assert.NoError(t, err)
	}

	accounts, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, accounts[0].DailyUsed)
}

func TestRecordSendResult_Success(t *testing.T) {
	svc, repo, _ := seedService(t, nil, testAccount("a1"))
	ctx := workspaceCtx("ws1")

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)
	require.NoError(t, svc.RecordSendResult(ctx, res.ID, enum.OutcomeSuccess))

	accounts, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	acc := accounts[0]
	assert.Equal(t, 1, acc.DailyUsed)
	assert.Equal(t, 1, acc.WeeklyUsed)
	assert.Equal(t, int64(1), acc.TotalSent)
	assert.Equal(t, 51, acc.Reputation)
	require.NotNil(t, acc.LastUsedAt)
	require.NotNil(t, acc.FirstUsedAt)

	// write-behind flush reaches the repository
	assert.Eventually(t, func() bool { return repo.stateSaveCount() > 0 }, time.Second, 10*time.Millisecond)
}

func TestRecordSendResult_DoubleSettle(t *testing.T) {
	svc, _, _ := seedService(t, nil, testAccount("a1"))
	ctx := workspaceCtx("ws1")

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)
	require.NoError(t, svc.RecordSendResult(ctx, res.ID, enum.OutcomeSuccess))

	err = svc.RecordSendResult(ctx, res.ID, enum.OutcomeSuccess)
	assert.ErrorIs(t, err, er.ErrReservationNotFound)

	accounts, _ := svc.ListAccounts(ctx)
	assert.Equal(t, 1, accounts[0].DailyUsed)
}

func TestRecordSendResult_ExpiredReservation(t *testing.T) {
	svc, _, clock := seedService(t, nil, testAccount("a1"))
	ctx := workspaceCtx("ws1")

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)

	clock.Advance(time.Minute)

	err = svc.RecordSendResult(ctx, res.ID, enum.OutcomeSuccess)
	assert.ErrorIs(t, err, er.ErrReservationExpired)

	accounts, _ := svc.ListAccounts(ctx)
	assert.Equal(t, 0, accounts[0].DailyUsed)
}

func TestRecordSendResult_Throttled(t *testing.T) {
	pub := &fakePublisher{}
	svc, _, _ := seedService(t, pub, testAccount("a1"))
	ctx := workspaceCtx("ws1")

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)
	require.NoError(t, svc.RecordSendResult(ctx, res.ID, enum.OutcomeThrottled))

	accounts, _ := svc.ListAccounts(ctx)
	acc := accounts[0]
	assert.Equal(t, enum.AccountStatusRateLimited, acc.Status)
	assert.Equal(t, 45, acc.Reputation)
	assert.Equal(t, 0, acc.DailyUsed) // throttled sends consume no quota
	require.NotNil(t, acc.CooldownUntil)
	assert.Equal(t, baseTime.Add(30*time.Minute), *acc.CooldownUntil)

	names := pub.eventNames()
	assert.Contains(t, names, "account.cooldown_set")
	assert.Contains(t, names, "account.status_changed")

	// cooling account is out of rotation
	_, err = svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	assert.ErrorIs(t, err, er.ErrPoolExhausted)
}

func TestRecordSendResult_ThrottledWithPolicyCooldown(t *testing.T) {
	svc, _, _ := seedService(t, nil, testAccount("a1"))
	ctx := workspaceCtx("ws1")

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{CooldownMinutes: 10})
	require.NoError(t, err)
	require.NoError(t, svc.RecordSendResult(ctx, res.ID, enum.OutcomeThrottled))

	accounts, _ := svc.ListAccounts(ctx)
	require.NotNil(t, accounts[0].CooldownUntil)
	assert.Equal(t, baseTime.Add(10*time.Minute), *accounts[0].CooldownUntil)
}

func TestRecordSendResult_FatalAndReinstate(t *testing.T) {
	pub := &fakePublisher{}
	svc, _, _ := seedService(t, pub, testAccount("a1"))
	ctx := workspaceCtx("ws1")

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)
	require.NoError(t, svc.RecordSendResult(ctx, res.ID, enum.OutcomeFatalError))

	accounts, _ := svc.ListAccounts(ctx)
	assert.Equal(t, enum.AccountStatusError, accounts[0].Status)
	assert.Equal(t, 30, accounts[0].Reputation)
	assert.Contains(t, pub.eventNames(), "account.fatal_error")

	// terminal state: time alone never brings it back
	_, err = svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	assert.ErrorIs(t, err, er.ErrPoolExhausted)

	require.NoError(t, svc.ReinstateAccount(ctx, "a1"))
	assert.Contains(t, pub.eventNames(), "account.reinstated")

	res2, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "a1", res2.AccountID)
}

func TestSelectAccount_LazyCooldownRecovery(t *testing.T) {
	past := baseTime.Add(-time.Minute)
	acc := testAccount("a1", func(a *models.SendingAccount) {
		a.Status = enum.AccountStatusRateLimited
		a.CooldownUntil = &past
	})
	svc, _, _ := seedService(t, nil, acc)
	ctx := workspaceCtx("ws1")

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "a1", res.AccountID)

	accounts, _ := svc.ListAccounts(ctx)
	assert.Equal(t, enum.AccountStatusActive, accounts[0].Status)
	assert.Nil(t, accounts[0].CooldownUntil)
}

func TestSelectAccount_AvoidRateLimitedFlag(t *testing.T) {
	// rate_limited with no cooldown stamp: only the flag decides
	acc := testAccount("a1", func(a *models.SendingAccount) {
		a.Status = enum.AccountStatusRateLimited
	})
	svc, _, _ := seedService(t, nil, acc)
	ctx := workspaceCtx("ws1")

	_, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{AvoidRateLimited: true})
	assert.ErrorIs(t, err, er.ErrPoolExhausted)

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{AvoidRateLimited: false})
	require.NoError(t, err)
	assert.Equal(t, "a1", res.AccountID)
}

func TestSelectAccount_RoundRobinDistribution(t *testing.T) {
	svc, _, _ := seedService(t, nil, testAccount("a1"), testAccount("a2"), testAccount("a3"))
	ctx := workspaceCtx("ws1")

	counts := map[string]int{}
	for i := 0; i < 6; i++ {
		res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{Strategy: enum.StrategyRoundRobin})
		require.NoError(t, err)
		counts[res.AccountID]++
		require.NoError(t, svc.RecordSendResult(ctx, res.ID, enum.OutcomeAbandoned))
	}

	assert.Equal(t, map[string]int{"a1": 2, "a2": 2, "a3": 2}, counts)
}

func TestSelectAccount_ManualStrategy(t *testing.T) {
	svc, _, _ := seedService(t, nil, testAccount("a1"), testAccount("a2"))
	ctx := workspaceCtx("ws1")

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{
		Strategy:  enum.StrategyManual,
		AccountID: "a2",
	})
	require.NoError(t, err)
	assert.Equal(t, "a2", res.AccountID)

	_, err = svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{
		Strategy:  enum.StrategyManual,
		AccountID: "missing",
	})
	assert.ErrorIs(t, err, er.ErrAccountNotFound)
}

func TestSelectAccount_ManualStrategyErroredAccount(t *testing.T) {
	errored := testAccount("a1", func(a *models.SendingAccount) { a.Status = enum.AccountStatusError })
	throttled := testAccount("a2", func(a *models.SendingAccount) {
		a.Status = enum.AccountStatusRateLimited
		a.CooldownUntil = utils.TimePtr(baseTime.Add(time.Hour))
	})
	svc, _, _ := seedService(t, nil, errored, throttled)
	ctx := workspaceCtx("ws1")

	// a dead account is reported as such, not as a routine eligibility miss
	_, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{
		Strategy:  enum.StrategyManual,
		AccountID: "a1",
	})
	assert.ErrorIs(t, err, er.ErrFatalAccountState)

	_, err = svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{
		Strategy:  enum.StrategyManual,
		AccountID: "a2",
	})
	assert.ErrorIs(t, err, er.ErrAccountNotEligible)
}

func TestSelectAccount_SameAccountIDAcrossWorkspaces(t *testing.T) {
	// account ids are only unique within a workspace; a reservation held in
	// one workspace must not consume the namesake's capacity in another
	a := testAccount("shared", func(a *models.SendingAccount) { a.DailyUsed = 9 })
	b := testAccount("shared", func(a *models.SendingAccount) {
		a.Workspace = "ws2"
		a.DailyUsed = 9
	})
	svc, _, _ := seedService(t, nil, a, b)

	res1, err := svc.SelectAccount(workspaceCtx("ws1"), enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "shared", res1.AccountID)

	res2, err := svc.SelectAccount(workspaceCtx("ws2"), enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "shared", res2.AccountID)

	// both pools are now genuinely exhausted
	_, err = svc.SelectAccount(workspaceCtx("ws1"), enum.ChannelEmail, models.RotationPolicy{})
	assert.ErrorIs(t, err, er.ErrPoolExhausted)
	_, err = svc.SelectAccount(workspaceCtx("ws2"), enum.ChannelEmail, models.RotationPolicy{})
	assert.ErrorIs(t, err, er.ErrPoolExhausted)

	require.NoError(t, svc.RecordSendResult(workspaceCtx("ws1"), res1.ID, enum.OutcomeSuccess))
	require.NoError(t, svc.RecordSendResult(workspaceCtx("ws2"), res2.ID, enum.OutcomeSuccess))
}

func TestSelectAccount_WarmupCapacity(t *testing.T) {
	// cold account at 20%: a limit of 10 yields 2 effective sends
	acc := testAccount("a1", func(a *models.SendingAccount) { a.WarmupStatus = enum.WarmupCold })
	svc, _, _ := seedService(t, nil, acc)
	ctx := workspaceCtx("ws1")

	for i := 0; i < 2; i++ {
		res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
		require.NoError(t, err)
		require.NoError(t, svc.RecordSendResult(ctx, res.ID, enum.OutcomeSuccess))
	}

	_, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	assert.ErrorIs(t, err, er.ErrPoolExhausted)
}

func TestSelectAccount_MaxDailyOverride(t *testing.T) {
	svc, _, _ := seedService(t, nil, testAccount("a1"))
	ctx := workspaceCtx("ws1")
	policy := models.RotationPolicy{MaxDailyOverride: 1}

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, policy)
	require.NoError(t, err)
	require.NoError(t, svc.RecordSendResult(ctx, res.ID, enum.OutcomeSuccess))

	_, err = svc.SelectAccount(ctx, enum.ChannelEmail, policy)
	assert.ErrorIs(t, err, er.ErrPoolExhausted)

	// the full limit is still there for callers without the override
	_, err = svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	assert.NoError(t, err)
}

func TestSelectAccount_LazyDailyReset(t *testing.T) {
	acc := testAccount("a1", func(a *models.SendingAccount) {
		a.DailyUsed = 10
		a.WeeklyUsed = 10
	})
	svc, _, clock := seedService(t, nil, acc)
	ctx := workspaceCtx("ws1")

	_, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.ErrorIs(t, err, er.ErrPoolExhausted)

	// crossing midnight resets the daily counter on the next read
	clock.Advance(13 * time.Hour)

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "a1", res.AccountID)

	accounts, _ := svc.ListAccounts(ctx)
	assert.Equal(t, 0, accounts[0].DailyUsed)
	assert.Equal(t, 10, accounts[0].WeeklyUsed)
}

func TestSweepExpiredReservations(t *testing.T) {
	acc := testAccount("a1", func(a *models.SendingAccount) { a.DailyUsed = 9 })
	svc, _, clock := seedService(t, nil, acc)
	ctx := workspaceCtx("ws1")

	_, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)

	assert.Equal(t, 0, svc.SweepExpiredReservations(ctx))

	clock.Advance(time.Minute)
	assert.Equal(t, 1, svc.SweepExpiredReservations(ctx))

	_, err = svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	assert.NoError(t, err)
}

func TestFlushDirtyAccounts(t *testing.T) {
	svc, repo, _ := seedService(t, nil, testAccount("a1"))
	ctx := workspaceCtx("ws1")

	res, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	require.NoError(t, err)

	repo.setSaveErr(errors.New("connection refused"))
	require.NoError(t, svc.RecordSendResult(ctx, res.ID, enum.OutcomeSuccess))

	repo.setSaveErr(nil)
	require.NoError(t, svc.FlushDirtyAccounts(ctx))

	persisted, err := repo.GetAccount(ctx, "ws1", "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, persisted.DailyUsed)
}

func TestGetPoolHealth(t *testing.T) {
	future := baseTime.Add(time.Hour)
	nearLimit := testAccount("a1", func(a *models.SendingAccount) { a.DailyUsed = 9 })
	cooling := testAccount("a2", func(a *models.SendingAccount) {
		a.Status = enum.AccountStatusRateLimited
		a.CooldownUntil = &future
		a.WarmupStatus = enum.WarmupWarming
	})
	errored := testAccount("a3", func(a *models.SendingAccount) {
		a.Status = enum.AccountStatusError
		a.WarmupStatus = enum.WarmupCold
	})
	svc, _, _ := seedService(t, nil, nearLimit, cooling, errored)

	health, err := svc.GetPoolHealth(workspaceCtx("ws1"))
	require.NoError(t, err)

	assert.Equal(t, 1, health.CountsByStatus["active"])
	assert.Equal(t, 1, health.CountsByStatus["rate_limited"])
	assert.Equal(t, 1, health.CountsByStatus["error"])
	assert.Equal(t, 1, health.CountsByWarmup["hot"])
	assert.Equal(t, 1, health.CountsByWarmup["warming"])
	assert.Equal(t, 1, health.CountsByWarmup["cold"])
	assert.Len(t, health.Warnings, 3)
}

func TestUpsertAccount(t *testing.T) {
	svc, _, _ := seedService(t, nil)
	ctx := workspaceCtx("ws1")

	t.Run("new account gets scheduler defaults", func(t *testing.T) {
		acc, err := svc.UpsertAccount(ctx, &models.SendingAccount{
			Channel:     enum.ChannelEmail,
			DailyLimit:  10,
			WeeklyLimit: 50,
		})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(acc.ID, "acct_"))
		assert.Equal(t, "ws1", acc.Workspace)
		assert.Equal(t, enum.AccountStatusActive, acc.Status)
		assert.Equal(t, enum.WarmupCold, acc.WarmupStatus)
		assert.Equal(t, 50, acc.Reputation)
		assert.Equal(t, "UTC", acc.Timezone)
		assert.False(t, acc.DailyPeriodStart.IsZero())
		require.NotNil(t, acc.WarmupStateSince)
	})

	t.Run("channel validated", func(t *testing.T) {
		_, err := svc.UpsertAccount(ctx, &models.SendingAccount{Channel: "fax"})
		assert.ErrorIs(t, err, er.ErrUnknownChannel)
	})

	t.Run("update keeps scheduler-owned state", func(t *testing.T) {
		seeded := testAccount("a9", func(a *models.SendingAccount) {
			a.DailyUsed = 4
			a.WarmupStatus = enum.WarmupWarm
			a.Reputation = 77
		})
		svc.pool.put(seeded)

		updated, err := svc.UpsertAccount(ctx, &models.SendingAccount{
			ID:          "a9",
			Channel:     enum.ChannelEmail,
			DailyLimit:  20,
			WeeklyLimit: 100,
			Status:      enum.AccountStatusInactive,
		})
		require.NoError(t, err)
		assert.Equal(t, 20, updated.DailyLimit)
		assert.Equal(t, enum.AccountStatusInactive, updated.Status)
		assert.Equal(t, 4, updated.DailyUsed)
		assert.Equal(t, enum.WarmupWarm, updated.WarmupStatus)
		assert.Equal(t, 77, updated.Reputation)
	})

	t.Run("operators cannot force scheduler statuses", func(t *testing.T) {
		seeded := testAccount("a10", func(a *models.SendingAccount) {
			a.Status = enum.AccountStatusError
		})
		svc.pool.put(seeded)

		updated, err := svc.UpsertAccount(ctx, &models.SendingAccount{
			ID:          "a10",
			Channel:     enum.ChannelEmail,
			DailyLimit:  10,
			WeeklyLimit: 50,
			Status:      enum.AccountStatusRateLimited,
		})
		require.NoError(t, err)
		assert.Equal(t, enum.AccountStatusError, updated.Status)
	})
}

func TestRemoveAccount(t *testing.T) {
	svc, _, _ := seedService(t, nil, testAccount("a1"))
	ctx := workspaceCtx("ws1")

	require.NoError(t, svc.RemoveAccount(ctx, "a1"))

	_, err := svc.SelectAccount(ctx, enum.ChannelEmail, models.RotationPolicy{})
	assert.ErrorIs(t, err, er.ErrPoolExhausted)

	err = svc.RemoveAccount(ctx, "a1")
	assert.ErrorIs(t, err, er.ErrAccountNotFound)
}
