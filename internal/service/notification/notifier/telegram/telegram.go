// Package telegram 텔레그램 Bot API를 통해 알림 메시지를 발송하는 Notifier 구현을 제공합니다.
package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/darkkaiser/sazentea-watcher/internal/config"
	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
	"github.com/darkkaiser/sazentea-watcher/internal/service/notification/notifier"
	applog "github.com/darkkaiser/sazentea-watcher/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// component 텔레그램 Notifier 로깅용 컴포넌트 이름
const component = "notification.telegram"

const (
	// messageMaxLength 텔레그램 Bot API의 단일 메시지 최대 길이 제한(바이트)입니다.
	// API 제한은 4096이지만, HTML 태그 등의 오버헤드를 고려하여 여유를 둡니다.
	messageMaxLength = 3900

	msgFormatTitle = "<b>【 %s 】</b>\n\n%s"
	msgFormatError = "%s\n\n*** 오류가 발생하였습니다. ***"
)

// botClient 텔레그램 Bot API 클라이언트 인터페이스입니다.
// 테스트에서 가짜 구현으로 대체할 수 있도록 tgbotapi.BotAPI의 Send 메서드만 추상화합니다.
type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// telegramNotifier 텔레그램 Bot API 기반의 Notifier 구현체입니다.
//
// 텔레그램 채널은 HTML 형식을 지원(SupportsHTML=true)하며,
// 메시지가 API 길이 제한을 초과하는 경우 줄 단위로 분할하여 순차 전송합니다.
type telegramNotifier struct {
	*notifier.Base

	client botClient
	chatID int64
}

// New 설정 정보를 바탕으로 새로운 텔레그램 Notifier를 생성합니다.
//
// 봇 토큰 검증을 위해 텔레그램 API 서버와 통신하므로,
// 네트워크 장애 또는 잘못된 토큰인 경우 Unavailable 에러를 반환합니다.
func New(cfg *config.TelegramConfig) (notifier.Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.Unavailable, "텔레그램 봇 API 초기화에 실패하였습니다(Notifier:%s)", cfg.ID)
	}

	return newWithClient(cfg, bot), nil
}

// newWithClient 봇 클라이언트를 주입받아 텔레그램 Notifier를 생성하는 내부 생성자입니다.
func newWithClient(cfg *config.TelegramConfig, client botClient) notifier.Notifier {
	return &telegramNotifier{
		Base: notifier.NewBase(contract.NotifierID(cfg.ID), true),

		client: client,
		chatID: cfg.ChatID,
	}
}

// Notify 알림 메시지를 텔레그램으로 발송하고 완료될 때까지 대기합니다.
func (n *telegramNotifier) Notify(ctx context.Context, msg notifier.Message) error {
	message := msg.Body

	// 제목이 있으면 메시지 상단에 강조 표시로 추가합니다.
	// 본문은 HTML 서식을 그대로 허용하지만, 제목은 서식 깨짐 방지를 위해 이스케이프합니다.
	if msg.Title != "" {
		message = fmt.Sprintf(msgFormatTitle, html.EscapeString(msg.Title), message)
	}

	if msg.ErrorOccurred {
		message = fmt.Sprintf(msgFormatError, message)
	}

	for _, chunk := range splitMessage(message, messageMaxLength) {
		if err := ctx.Err(); err != nil {
			return apperrors.Wrap(err, apperrors.ExecutionFailed, "텔레그램 메시지 발송이 취소되었습니다")
		}

		if err := n.sendChunk(chunk); err != nil {
			return err
		}
	}

	return nil
}

// sendChunk 단일 메시지 청크를 텔레그램 API로 전송합니다.
//
// HTML 파싱 실패(400 에러)가 발생하면 태그를 문자 그대로 표시하는
// PlainText 모드로 한 번 더 시도하여 전송 자체는 보장합니다.
func (n *telegramNotifier) sendChunk(chunk string) error {
	messageConfig := tgbotapi.NewMessage(n.chatID, chunk)
	messageConfig.ParseMode = tgbotapi.ModeHTML

	_, err := n.client.Send(messageConfig)
	if err != nil && parseTelegramErrorCode(err) == 400 {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.ID(),
			"error":       err,
		}).Warn("HTML 파싱 오류(400): PlainText 모드로 전환하여 재시도합니다")

		messageConfig.ParseMode = ""
		_, err = n.client.Send(messageConfig)
	}

	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id":    n.ID(),
			"chat_id":        n.chatID,
			"error":          err,
			"message_length": len(chunk),
		}).Error("발송 실패: 텔레그램 API 호출에서 오류가 발생했습니다")

		return apperrors.Wrapf(err, apperrors.ExecutionFailed, "텔레그램 메시지 발송에 실패하였습니다(Notifier:%s)", n.ID())
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"notifier_id":    n.ID(),
		"chat_id":        n.chatID,
		"message_length": len(chunk),
	}).Info("발송 성공: 텔레그램 API로 메시지가 정상 전송되었습니다")

	return nil
}

// parseTelegramErrorCode 텔레그램 API 에러에서 HTTP 상태 코드를 추출합니다.
// 텔레그램 API 에러가 아닌 경우(일반 네트워크 에러 등) 0을 반환합니다.
func parseTelegramErrorCode(err error) int {
	if apiErr, ok := err.(tgbotapi.Error); ok {
		return apiErr.Code
	}
	if apiErrPtr, ok := err.(*tgbotapi.Error); ok {
		return apiErrPtr.Code
	}
	return 0
}

// splitMessage 메시지를 API 길이 제한(limit 바이트) 이내의 청크들로 분할합니다.
//
// 가독성을 위해 가능한 한 줄바꿈(\n) 단위로 나누며,
// 한 줄 자체가 제한을 초과하는 경우에만 UTF-8 문자 경계를 지키면서 강제로 자릅니다.
func splitMessage(message string, limit int) []string {
	if len(message) <= limit {
		return []string{message}
	}

	var chunks []string
	var sb strings.Builder
	sb.Grow(limit)

	for _, line := range strings.Split(message, "\n") {
		neededSpace := len(line)
		if sb.Len() > 0 {
			neededSpace++ // 줄바꿈 문자 1바이트
		}

		if sb.Len()+neededSpace > limit {
			if sb.Len() > 0 {
				chunks = append(chunks, sb.String())
				sb.Reset()
			}

			// 한 줄 자체가 제한을 초과하는 경우 강제 분할
			for len(line) > limit {
				chunk, remainder := safeSplit(line, limit)
				chunks = append(chunks, chunk)
				line = remainder
			}

			sb.WriteString(line)
		} else {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(line)
		}
	}

	if sb.Len() > 0 {
		chunks = append(chunks, sb.String())
	}

	return chunks
}

// safeSplit UTF-8 문자열을 지정된 바이트 길이(limit) 내에서 안전하게 분할합니다.
// 멀티바이트 문자(한글, 이모지 등)가 청크 경계에서 깨지지 않도록 룬 시작 위치를 찾아 자릅니다.
func safeSplit(s string, limit int) (chunk, remainder string) {
	if len(s) <= limit {
		return s, ""
	}

	splitIndex := limit
	for splitIndex > 0 && !utf8.RuneStart(s[splitIndex]) {
		splitIndex--
	}

	// limit 이전에 유효한 룬 시작점이 없는 비정상 입력인 경우 강제로 자릅니다.
	if splitIndex == 0 {
		return s[:limit], s[limit:]
	}

	return s[:splitIndex], s[splitIndex:]
}
