// Package notification 설정된 알림 채널들을 관리하고 알림 발송 요청을 중계하는 서비스를 제공합니다.
package notification

import (
	"context"
	"time"

	"github.com/darkkaiser/sazentea-watcher/internal/config"
	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
	"github.com/darkkaiser/sazentea-watcher/internal/service/notification/notifier"
	"github.com/darkkaiser/sazentea-watcher/internal/service/notification/notifier/email"
	"github.com/darkkaiser/sazentea-watcher/internal/service/notification/notifier/telegram"
	applog "github.com/darkkaiser/sazentea-watcher/pkg/log"
)

// component 알림 서비스 로깅용 컴포넌트 이름
const component = "notification.service"

// defaultNotifyTimeout 단일 알림 발송의 최대 허용 시간입니다.
// SMTP 서버 무응답 등으로 발송이 무한정 지연되어 감시 루프 전체가 멈추는 것을 방지합니다.
const defaultNotifyTimeout = 1 * time.Minute

// Service 설정된 모든 Notifier를 관리하며 알림 발송 요청을 해당 채널로 중계하는 서비스입니다.
//
// 발송은 동기적으로 수행됩니다. Notify 계열 메서드가 에러 없이 반환되었다면
// 해당 채널로의 발송이 성공적으로 완료되었음을 의미하며,
// 호출자는 반환된 에러를 통해 발송 실패를 작업 실패로 처리할 수 있습니다.
type Service struct {
	notifiers map[contract.NotifierID]notifier.Notifier

	defaultNotifierID contract.NotifierID

	notifyTimeout time.Duration
}

// Service가 contract.NotificationSender 인터페이스를 만족하는지 컴파일 타임에 확인합니다.
var _ contract.NotificationSender = (*Service)(nil)

// NewService 설정 정보를 바탕으로 모든 Notifier를 생성하고 알림 서비스를 초기화합니다.
//
// 설정된 Notifier 중 하나라도 생성에 실패하면(잘못된 이메일 주소, 봇 토큰 검증 실패 등)
// 서비스 전체 초기화를 실패로 처리합니다.
func NewService(appConfig *config.AppConfig) (*Service, error) {
	if appConfig == nil {
		return nil, apperrors.New(apperrors.InvalidInput, "AppConfig는 필수입니다")
	}

	var notifiers []notifier.Notifier

	for i := range appConfig.Notifiers.Emails {
		n, err := email.New(&appConfig.Notifiers.Emails[i])
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}

	for i := range appConfig.Notifiers.Telegrams {
		n, err := telegram.New(&appConfig.Notifiers.Telegrams[i])
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}

	return newService(notifiers, contract.NotifierID(appConfig.Notifiers.DefaultNotifierID))
}

// newService Notifier 목록을 직접 주입받아 알림 서비스를 생성하는 내부 생성자입니다.
func newService(notifiers []notifier.Notifier, defaultNotifierID contract.NotifierID) (*Service, error) {
	registry := make(map[contract.NotifierID]notifier.Notifier, len(notifiers))
	for _, n := range notifiers {
		if _, exists := registry[n.ID()]; exists {
			return nil, apperrors.Newf(apperrors.InvalidInput, "Notifier ID가 중복됩니다: '%s'", n.ID())
		}
		registry[n.ID()] = n
	}

	if _, exists := registry[defaultNotifierID]; !exists {
		return nil, apperrors.Newf(apperrors.InvalidInput, "기본 Notifier를 찾을 수 없습니다: '%s'", defaultNotifierID)
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"notifier_count":      len(registry),
		"default_notifier_id": defaultNotifierID,
	}).Info("알림 서비스 초기화 완료")

	return &Service{
		notifiers: registry,

		defaultNotifierID: defaultNotifierID,

		notifyTimeout: defaultNotifyTimeout,
	}, nil
}

// Notify 지정된 Notifier를 통해 제목을 포함한 알림 메시지를 발송합니다.
func (s *Service) Notify(notifierID contract.NotifierID, title string, message string, errorOccurred bool) error {
	n, exists := s.notifiers[notifierID]
	if !exists {
		return apperrors.Newf(apperrors.NotFound, "등록되지 않은 Notifier입니다: '%s'", notifierID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()

	if err := n.Notify(ctx, notifier.Message{
		Title:         title,
		Body:          message,
		ErrorOccurred: errorOccurred,
	}); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id":    notifierID,
			"error_occurred": errorOccurred,
			"error":          err,
		}).Error("알림 발송 실패")

		return err
	}

	return nil
}

// NotifyDefault 시스템에 설정된 기본 Notifier를 통해 알림 메시지를 발송합니다.
func (s *Service) NotifyDefault(title string, message string) error {
	return s.Notify(s.defaultNotifierID, title, message, false)
}

// NotifyDefaultWithError 시스템에 설정된 기본 Notifier를 통해 "오류" 성격의 알림 메시지를 발송합니다.
func (s *Service) NotifyDefaultWithError(message string) error {
	return s.Notify(s.defaultNotifierID, config.AppName, message, true)
}

// SupportsHTML 지정된 ID의 Notifier가 HTML 형식을 지원하는지 여부를 반환합니다.
// 등록되지 않은 Notifier인 경우 false를 반환합니다.
func (s *Service) SupportsHTML(notifierID contract.NotifierID) bool {
	n, exists := s.notifiers[notifierID]
	if !exists {
		return false
	}
	return n.SupportsHTML()
}

// DefaultNotifierID 시스템에 설정된 기본 Notifier의 식별자를 반환합니다.
func (s *Service) DefaultNotifierID() contract.NotifierID {
	return s.defaultNotifierID
}
