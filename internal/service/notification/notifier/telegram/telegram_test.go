package telegram

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/darkkaiser/sazentea-watcher/internal/config"
	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/notification/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// fakeBotClient 전송된 메시지를 기록하는 테스트용 봇 클라이언트입니다.
type fakeBotClient struct {
	sent    []tgbotapi.MessageConfig
	sendErr error

	// failHTMLOnce true인 경우 HTML 모드의 첫 전송에만 400 에러를 반환합니다.
	failHTMLOnce bool
}

func (f *fakeBotClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	mc, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, assert.AnError
	}

	if f.failHTMLOnce && mc.ParseMode == tgbotapi.ModeHTML {
		f.failHTMLOnce = false
		return tgbotapi.Message{}, tgbotapi.Error{Code: 400, Message: "Bad Request: can't parse entities"}
	}

	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}

	f.sent = append(f.sent, mc)
	return tgbotapi.Message{}, nil
}

func newTestNotifier(client *fakeBotClient) notifier.Notifier {
	return newWithClient(&config.TelegramConfig{
		ID:       "telegram-admin",
		BotToken: "123456789:AAHtT0wJFIxPqcWkzenrKHNvXvcssQP6lDM",
		ChatID:   1234567890,
	}, client)
}

func TestTelegramNotifier_Notify(t *testing.T) {
	t.Run("정상_발송", func(t *testing.T) {
		client := &fakeBotClient{}
		n := newTestNotifier(client)

		err := n.Notify(context.Background(), notifier.Message{Body: "<b>신상품</b> 안내"})
		require.NoError(t, err)

		require.Len(t, client.sent, 1)
		assert.Equal(t, int64(1234567890), client.sent[0].ChatID)
		assert.Equal(t, tgbotapi.ModeHTML, client.sent[0].ParseMode)
		assert.Equal(t, "<b>신상품</b> 안내", client.sent[0].Text)
	})

	t.Run("제목_이스케이프_및_강조_표시", func(t *testing.T) {
		client := &fakeBotClient{}
		n := newTestNotifier(client)

		err := n.Notify(context.Background(), notifier.Message{Title: "Sazen <Tea>", Body: "본문"})
		require.NoError(t, err)

		require.Len(t, client.sent, 1)
		assert.Contains(t, client.sent[0].Text, "<b>【 Sazen &lt;Tea&gt; 】</b>")
		assert.Contains(t, client.sent[0].Text, "본문")
	})

	t.Run("오류_알림_강조_표시", func(t *testing.T) {
		client := &fakeBotClient{}
		n := newTestNotifier(client)

		err := n.Notify(context.Background(), notifier.Message{Body: "작업 실패", ErrorOccurred: true})
		require.NoError(t, err)

		require.Len(t, client.sent, 1)
		assert.Contains(t, client.sent[0].Text, "*** 오류가 발생하였습니다. ***")
	})

	t.Run("HTML_파싱_실패_시_PlainText_재시도", func(t *testing.T) {
		client := &fakeBotClient{failHTMLOnce: true}
		n := newTestNotifier(client)

		err := n.Notify(context.Background(), notifier.Message{Body: "<b>닫히지 않은 태그"})
		require.NoError(t, err)

		require.Len(t, client.sent, 1)
		assert.Empty(t, client.sent[0].ParseMode)
	})

	t.Run("발송_실패_시_에러_반환", func(t *testing.T) {
		client := &fakeBotClient{sendErr: assert.AnError}
		n := newTestNotifier(client)

		err := n.Notify(context.Background(), notifier.Message{Body: "본문"})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ExecutionFailed))
	})

	t.Run("긴_메시지_분할_발송", func(t *testing.T) {
		client := &fakeBotClient{}
		n := newTestNotifier(client)

		lines := make([]string, 0, 200)
		for range 200 {
			lines = append(lines, strings.Repeat("a", 100))
		}
		longMessage := strings.Join(lines, "\n")

		err := n.Notify(context.Background(), notifier.Message{Body: longMessage})
		require.NoError(t, err)

		require.Greater(t, len(client.sent), 1)
		for _, mc := range client.sent {
			assert.LessOrEqual(t, len(mc.Text), messageMaxLength)
		}
	})
}

func TestSplitMessage(t *testing.T) {
	t.Run("제한_이내_메시지는_분할하지_않음", func(t *testing.T) {
		chunks := splitMessage("짧은 메시지", 100)
		assert.Equal(t, []string{"짧은 메시지"}, chunks)
	})

	t.Run("줄바꿈_단위_분할", func(t *testing.T) {
		chunks := splitMessage("aaaa\nbbbb\ncccc", 9)
		assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, chunks)
	})

	t.Run("초장문_한_줄_강제_분할", func(t *testing.T) {
		chunks := splitMessage(strings.Repeat("x", 25), 10)
		assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)
	})

	t.Run("멀티바이트_문자_경계_보존", func(t *testing.T) {
		chunks := splitMessage(strings.Repeat("한", 100), 10)
		for _, chunk := range chunks {
			assert.True(t, utf8.ValidString(chunk))
		}
	})
}
