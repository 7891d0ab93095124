// Package task 감시 작업(Task)의 생성과 실행을 총괄하는 서비스를 제공합니다.
package task

import (
	"context"
	"sync"

	"github.com/darkkaiser/sazentea-watcher/internal/config"
	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/fetcher"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/provider"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/provider/sazentea"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/scraper"
	applog "github.com/darkkaiser/sazentea-watcher/pkg/log"
)

// component Task 서비스의 로깅용 컴포넌트 이름
const component = "task.service"

// Service 감시 작업의 생성과 실행을 담당하는 서비스입니다.
//
// 모든 작업이 공유하는 인프라(HTTP 클라이언트, 스크래퍼, 저장소)를 소유하며,
// 스케줄러의 요청에 따라 감시 작업을 동기적으로 1회 실행(RunOnce)합니다.
type Service struct {
	// notificationSender 작업 실행 결과를 외부 알림 채널로 전송하는 인터페이스입니다.
	notificationSender contract.NotificationSender

	// task 감시 작업 인스턴스입니다. 매 주기마다 재사용됩니다.
	task provider.Task

	// runningMu 동일 작업의 중복 실행을 방지합니다.
	running   bool
	runningMu sync.Mutex
}

// NewService Task 서비스를 생성합니다.
//
// 작업 설정(appConfig.Watch)을 디코딩하여 감시 작업 인스턴스를 생성하며,
// 설정이 유효하지 않으면 에러를 반환합니다.
func NewService(appConfig *config.AppConfig, taskResultStore contract.TaskResultStore, notificationSender contract.NotificationSender) (*Service, error) {
	if appConfig == nil {
		return nil, apperrors.New(apperrors.InvalidInput, "AppConfig는 필수입니다")
	}
	if taskResultStore == nil {
		return nil, apperrors.New(apperrors.InvalidInput, "TaskResultStore는 필수입니다")
	}
	if notificationSender == nil {
		return nil, apperrors.New(apperrors.InvalidInput, "NotificationSender는 필수입니다")
	}

	task, err := sazentea.NewTask(provider.NewTaskParams{
		NotifierID: contract.NotifierID(appConfig.Notifiers.DefaultNotifierID),
		Storage:    taskResultStore,
		Scraper:    scraper.New(fetcher.NewHTTPFetcher()),
		Settings:   appConfig.Watch,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		notificationSender: notificationSender,

		task: task,
	}, nil
}

// RunOnce 감시 작업을 동기적으로 1회 실행합니다.
//
// 작업이 완료되거나 실패할 때까지 블로킹되며, 반환된 에러는
// 호출자(스케줄러)의 실패 정책 판단에 사용됩니다.
// 이전 실행이 아직 끝나지 않은 상태에서 호출되면 실행을 건너뜁니다.
func (s *Service) RunOnce(ctx context.Context) error {
	s.runningMu.Lock()
	if s.running {
		s.runningMu.Unlock()

		applog.WithComponent(component).Warn("이전 작업이 아직 실행 중이므로 이번 실행을 건너뜁니다")
		return nil
	}
	s.running = true
	s.runningMu.Unlock()

	defer func() {
		s.runningMu.Lock()
		s.running = false
		s.runningMu.Unlock()
	}()

	logger := applog.WithComponentAndFields(component, applog.Fields{
		"task_id":    s.task.ID(),
		"command_id": s.task.CommandID(),
	})
	logger.Debug("감시 작업 실행 시작")

	if err := s.task.Run(ctx, s.notificationSender); err != nil {
		return err
	}

	logger.Debug("감시 작업 실행 완료")

	return nil
}
