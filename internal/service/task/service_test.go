package task

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
)

// fakeTask provider.Task 인터페이스의 테스트용 구현체입니다.
type fakeTask struct {
	mu       sync.Mutex
	runCount int

	runErr error

	// blockC nil이 아니면 Run이 이 채널이 닫힐 때까지 블로킹됩니다.
	blockC chan struct{}
}

func (f *fakeTask) ID() contract.TaskID               { return "sazentea" }
func (f *fakeTask) CommandID() contract.TaskCommandID { return "watch_products" }
func (f *fakeTask) NotifierID() contract.NotifierID   { return "email-main" }

func (f *fakeTask) Run(_ context.Context, _ contract.NotificationSender) error {
	f.mu.Lock()
	f.runCount++
	f.mu.Unlock()

	if f.blockC != nil {
		<-f.blockC
	}

	return f.runErr
}

func (f *fakeTask) runs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runCount
}

// noopSender contract.NotificationSender 인터페이스의 테스트용 구현체입니다.
type noopSender struct{}

func (noopSender) Notify(contract.NotifierID, string, string, bool) error { return nil }
func (noopSender) NotifyDefault(string, string) error                     { return nil }
func (noopSender) NotifyDefaultWithError(string) error                    { return nil }
func (noopSender) SupportsHTML(contract.NotifierID) bool                  { return true }
func (noopSender) DefaultNotifierID() contract.NotifierID                 { return "email-main" }

// noopStore contract.TaskResultStore 인터페이스의 테스트용 구현체입니다.
type noopStore struct{}

func (noopStore) Save(contract.TaskID, contract.TaskCommandID, any) error { return nil }
func (noopStore) Load(contract.TaskID, contract.TaskCommandID, any) error {
	return contract.ErrTaskResultNotFound
}

func validAppConfig() *config.AppConfig {
	return &config.AppConfig{
		Watch: config.WatchConfig{
			IntervalMinutes:    30,
			ProductsURL:        "https://www.sazentea.com/en/products",
			Brands:             []string{"maruyasu"},
			IngredientKeywords: []string{"matcha"},
			FailurePolicy:      config.FailurePolicyAbort,
			DataDir:            "./data",
		},
		Notifiers: config.NotifierConfig{
			DefaultNotifierID: "email-main",
		},
	}
}

func TestNewService(t *testing.T) {
	t.Run("정상_생성", func(t *testing.T) {
		service, err := NewService(validAppConfig(), noopStore{}, noopSender{})
		require.NoError(t, err)
		require.NotNil(t, service)
		assert.Equal(t, contract.TaskID("sazentea"), service.task.ID())
	})

	t.Run("필수_의존성_누락", func(t *testing.T) {
		appConfig := validAppConfig()

		_, err := NewService(nil, noopStore{}, noopSender{})
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

		_, err = NewService(appConfig, nil, noopSender{})
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

		_, err = NewService(appConfig, noopStore{}, nil)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})

	t.Run("감시_설정_오류_전파", func(t *testing.T) {
		appConfig := validAppConfig()
		appConfig.Watch.ProductsURL = "invalid"

		_, err := NewService(appConfig, noopStore{}, noopSender{})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})
}

func TestServiceRunOnce(t *testing.T) {
	t.Run("작업_실행_위임", func(t *testing.T) {
		ft := &fakeTask{}
		service := &Service{notificationSender: noopSender{}, task: ft}

		require.NoError(t, service.RunOnce(context.Background()))
		assert.Equal(t, 1, ft.runs())
	})

	t.Run("작업_에러_전파", func(t *testing.T) {
		ft := &fakeTask{runErr: apperrors.New(apperrors.ExecutionFailed, "요청 실패")}
		service := &Service{notificationSender: noopSender{}, task: ft}

		err := service.RunOnce(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ExecutionFailed))
	})

	t.Run("중복_실행_건너뜀", func(t *testing.T) {
		blockC := make(chan struct{})
		ft := &fakeTask{blockC: blockC}
		service := &Service{notificationSender: noopSender{}, task: ft}

		firstDone := make(chan error, 1)
		go func() {
			firstDone <- service.RunOnce(context.Background())
		}()

		// 첫 번째 실행이 블로킹 상태에 진입할 때까지 대기합니다.
		require.Eventually(t, func() bool {
			return ft.runs() == 1
		}, time.Second, 10*time.Millisecond)

		// 실행 중에 다시 호출하면 작업을 실행하지 않고 즉시 반환되어야 합니다.
		require.NoError(t, service.RunOnce(context.Background()))
		assert.Equal(t, 1, ft.runs())

		close(blockC)
		require.NoError(t, <-firstDone)
	})
}
