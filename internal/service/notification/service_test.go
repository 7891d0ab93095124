package notification

import (
	"context"
	"testing"

	"github.com/darkkaiser/sazentea-watcher/internal/config"
	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
	"github.com/darkkaiser/sazentea-watcher/internal/service/notification/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotifier 호출 내역을 기록하는 테스트용 Notifier입니다.
type fakeNotifier struct {
	*notifier.Base

	received  []notifier.Message
	notifyErr error
}

func newFakeNotifier(id string, supportsHTML bool) *fakeNotifier {
	return &fakeNotifier{
		Base: notifier.NewBase(contract.NotifierID(id), supportsHTML),
	}
}

func (f *fakeNotifier) Notify(_ context.Context, msg notifier.Message) error {
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.received = append(f.received, msg)
	return nil
}

func TestService_New(t *testing.T) {
	t.Run("중복_Notifier_ID_거부", func(t *testing.T) {
		_, err := newService([]notifier.Notifier{
			newFakeNotifier("dup", true),
			newFakeNotifier("dup", false),
		}, "dup")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})

	t.Run("존재하지_않는_기본_Notifier_거부", func(t *testing.T) {
		_, err := newService([]notifier.Notifier{newFakeNotifier("email-main", true)}, "missing")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})

	t.Run("nil_설정_거부", func(t *testing.T) {
		_, err := NewService(nil)
		require.Error(t, err)
	})
}

func TestService_Notify(t *testing.T) {
	t.Run("지정된_Notifier로_발송", func(t *testing.T) {
		target := newFakeNotifier("email-main", true)
		other := newFakeNotifier("telegram-admin", true)

		s, err := newService([]notifier.Notifier{target, other}, "email-main")
		require.NoError(t, err)

		err = s.Notify("email-main", "제목", "본문", false)
		require.NoError(t, err)

		require.Len(t, target.received, 1)
		assert.Equal(t, "제목", target.received[0].Title)
		assert.Equal(t, "본문", target.received[0].Body)
		assert.False(t, target.received[0].ErrorOccurred)
		assert.Empty(t, other.received)
	})

	t.Run("등록되지_않은_Notifier_거부", func(t *testing.T) {
		s, err := newService([]notifier.Notifier{newFakeNotifier("email-main", true)}, "email-main")
		require.NoError(t, err)

		err = s.Notify("unknown", "제목", "본문", false)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.NotFound))
	})

	t.Run("발송_실패_에러_전파", func(t *testing.T) {
		failing := newFakeNotifier("email-main", true)
		failing.notifyErr = apperrors.New(apperrors.ExecutionFailed, "발송 실패")

		s, err := newService([]notifier.Notifier{failing}, "email-main")
		require.NoError(t, err)

		err = s.NotifyDefault("제목", "본문")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ExecutionFailed))
	})

	t.Run("기본_Notifier_오류_알림", func(t *testing.T) {
		target := newFakeNotifier("email-main", true)

		s, err := newService([]notifier.Notifier{target}, "email-main")
		require.NoError(t, err)

		err = s.NotifyDefaultWithError("작업 실행 중 오류 발생")
		require.NoError(t, err)

		require.Len(t, target.received, 1)
		assert.Equal(t, config.AppName, target.received[0].Title)
		assert.True(t, target.received[0].ErrorOccurred)
	})
}

func TestService_SupportsHTML(t *testing.T) {
	s, err := newService([]notifier.Notifier{
		newFakeNotifier("html-channel", true),
		newFakeNotifier("plain-channel", false),
	}, "html-channel")
	require.NoError(t, err)

	assert.True(t, s.SupportsHTML("html-channel"))
	assert.False(t, s.SupportsHTML("plain-channel"))
	assert.False(t, s.SupportsHTML("unknown"))

	assert.Equal(t, contract.NotifierID("html-channel"), s.DefaultNotifierID())
}
