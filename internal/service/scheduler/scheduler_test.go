package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/sazentea-watcher/internal/config"
	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeRunner TaskRunner 인터페이스의 테스트용 구현체입니다.
// errs에 지정된 순서대로 에러를 반환하며, 소진된 이후에는 nil을 반환합니다.
type fakeRunner struct {
	mu       sync.Mutex
	runCount int
	errs     []error
}

func (f *fakeRunner) RunOnce(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.runCount++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}

	return nil
}

func (f *fakeRunner) runs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runCount
}

// recordingSender contract.NotificationSender 인터페이스의 테스트용 구현체입니다.
type recordingSender struct {
	mu            sync.Mutex
	errorMessages []string
}

func (r *recordingSender) Notify(contract.NotifierID, string, string, bool) error { return nil }
func (r *recordingSender) NotifyDefault(string, string) error                     { return nil }
func (r *recordingSender) SupportsHTML(contract.NotifierID) bool                  { return true }
func (r *recordingSender) DefaultNotifierID() contract.NotifierID                 { return "email-main" }

func (r *recordingSender) NotifyDefaultWithError(message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errorMessages = append(r.errorMessages, message)
	return nil
}

func (r *recordingSender) errorNotifications() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errorMessages...)
}

func watchConfig(failurePolicy string) config.WatchConfig {
	return config.WatchConfig{
		IntervalMinutes:    30,
		ProductsURL:        "https://www.sazentea.com/en/products",
		Brands:             []string{"maruyasu"},
		IngredientKeywords: []string{"matcha"},
		FailurePolicy:      failurePolicy,
		DataDir:            "./data",
	}
}

// newTestScheduler 테스트용으로 짧은 감시 주기가 적용된 Scheduler를 생성합니다.
func newTestScheduler(failurePolicy string, runner TaskRunner, sender contract.NotificationSender) *Scheduler {
	s := NewService(watchConfig(failurePolicy), runner, sender)
	s.interval = 10 * time.Millisecond
	return s
}

// waitDone Done() 채널이 닫힐 때까지 타임아웃과 함께 대기합니다.
func waitDone(t *testing.T, s *Scheduler) {
	t.Helper()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("스케줄러가 제한 시간 내에 종료되지 않았습니다")
	}
}

func TestNewService(t *testing.T) {
	t.Run("정상_생성", func(t *testing.T) {
		assert.NotPanics(t, func() {
			s := NewService(watchConfig(config.FailurePolicyAbort), &fakeRunner{}, &recordingSender{})
			require.NotNil(t, s)
			assert.Equal(t, 30*time.Minute, s.interval)
			assert.Equal(t, config.FailurePolicyAbort, s.failurePolicy)
		})
	})

	t.Run("필수_의존성_누락_Panic", func(t *testing.T) {
		assert.PanicsWithValue(t, "TaskRunner는 필수입니다", func() {
			NewService(watchConfig(config.FailurePolicyAbort), nil, &recordingSender{})
		})
		assert.PanicsWithValue(t, "NotificationSender는 필수입니다", func() {
			NewService(watchConfig(config.FailurePolicyAbort), &fakeRunner{}, nil)
		})
	})
}

func TestSchedulerLoop(t *testing.T) {
	t.Run("고정_주기_반복_실행", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		runner := &fakeRunner{}
		s := newTestScheduler(config.FailurePolicyAbort, runner, &recordingSender{})

		ctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup

		wg.Add(1)
		require.NoError(t, s.Start(ctx, &wg))

		// 첫 실행은 즉시, 이후 실행은 감시 주기 경과 후 이루어져야 합니다.
		require.Eventually(t, func() bool {
			return runner.runs() >= 3
		}, time.Second, 5*time.Millisecond)

		cancel()
		waitDone(t, s)
		wg.Wait()

		assert.NoError(t, s.Err())
	})

	t.Run("abort_정책_작업_실패_시_루프_중단", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		taskErr := apperrors.New(apperrors.ExecutionFailed, "알림 발송 실패")
		runner := &fakeRunner{errs: []error{taskErr}}
		sender := &recordingSender{}
		s := newTestScheduler(config.FailurePolicyAbort, runner, sender)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var wg sync.WaitGroup

		wg.Add(1)
		require.NoError(t, s.Start(ctx, &wg))

		waitDone(t, s)
		wg.Wait()

		assert.Equal(t, 1, runner.runs())
		assert.ErrorIs(t, s.Err(), taskErr)

		// abort 정책에서는 관리자 알림 없이 즉시 중단됩니다.
		assert.Empty(t, sender.errorNotifications())
	})

	t.Run("continue_정책_작업_실패_시_재시도", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		taskErr := apperrors.New(apperrors.ExecutionFailed, "페이지 요청 실패")
		runner := &fakeRunner{errs: []error{taskErr}}
		sender := &recordingSender{}
		s := newTestScheduler(config.FailurePolicyContinue, runner, sender)

		ctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup

		wg.Add(1)
		require.NoError(t, s.Start(ctx, &wg))

		// 실패 이후에도 루프가 계속 실행되어야 합니다.
		require.Eventually(t, func() bool {
			return runner.runs() >= 2
		}, time.Second, 5*time.Millisecond)

		cancel()
		waitDone(t, s)
		wg.Wait()

		assert.NoError(t, s.Err())

		// 실패는 관리자에게 알림으로 전달되어야 합니다.
		notifications := sender.errorNotifications()
		require.NotEmpty(t, notifications)
		assert.Contains(t, notifications[0], "페이지 요청 실패")
	})

	t.Run("대기_중_종료_신호_수신_시_즉시_종료", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		runner := &fakeRunner{}
		s := NewService(watchConfig(config.FailurePolicyAbort), runner, &recordingSender{})
		s.interval = time.Hour // 다음 실행까지 장시간 대기하도록 설정

		ctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup

		wg.Add(1)
		require.NoError(t, s.Start(ctx, &wg))

		require.Eventually(t, func() bool {
			return runner.runs() == 1
		}, time.Second, 5*time.Millisecond)

		start := time.Now()
		cancel()
		waitDone(t, s)
		wg.Wait()

		// 감시 주기(1시간)를 기다리지 않고 즉시 종료되어야 합니다.
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("중복_Start_호출_무시", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		runner := &fakeRunner{}
		s := NewService(watchConfig(config.FailurePolicyAbort), runner, &recordingSender{})
		s.interval = time.Hour

		ctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup

		wg.Add(1)
		require.NoError(t, s.Start(ctx, &wg))

		// 이미 실행 중일 때 다시 Start를 호출하면 에러 없이 무시되어야 합니다.
		wg.Add(1)
		require.NoError(t, s.Start(ctx, &wg))

		cancel()
		waitDone(t, s)
		wg.Wait()
	})
}
