// Package scheduler 감시 작업을 고정 주기로 반복 실행하는 스케줄러 서비스를 제공합니다.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/sazentea-watcher/internal/config"
	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
	applog "github.com/darkkaiser/sazentea-watcher/pkg/log"
)

// component Scheduler 서비스의 로깅용 컴포넌트 이름
const component = "scheduler.service"

// TaskRunner 감시 작업을 동기적으로 1회 실행하는 인터페이스입니다.
type TaskRunner interface {
	RunOnce(ctx context.Context) error
}

// Scheduler 감시 작업을 고정 주기(Fixed Delay)로 반복 실행하는 서비스입니다.
//
// Cron과 달리 절대 시각이 아닌 "이전 실행 완료 시점 + 감시 주기"를 기준으로
// 다음 실행을 예약하므로, 실행 시간이 길어져도 작업이 겹치지 않습니다.
//
// 작업 실패 시의 동작은 실패 정책(FailurePolicy)에 따라 달라집니다:
//   - abort: 루프를 즉시 중단하고 에러를 노출합니다. (프로세스 종료로 이어짐)
//   - continue: 에러를 기록하고 관리자에게 알린 후 다음 주기에 재시도합니다.
type Scheduler struct {
	// interval 감시 주기입니다. 작업 완료 후 이 시간만큼 대기합니다.
	interval time.Duration

	// failurePolicy 작업 실패 시 적용할 정책 (config.FailurePolicyAbort / FailurePolicyContinue)
	failurePolicy string

	// taskRunner 감시 작업 실행을 위임받는 인터페이스입니다.
	taskRunner TaskRunner

	// notificationSender 작업 실패를 관리자에게 알리기 위한 인터페이스입니다.
	notificationSender contract.NotificationSender

	// doneC 루프 종료 시 닫히는 채널입니다. 닫힌 이후에만 loopErr 접근이 안전합니다.
	doneC chan struct{}

	// loopErr abort 정책으로 루프가 중단된 경우의 원인 에러입니다.
	loopErr error

	running   bool
	runningMu sync.Mutex
}

// NewService 새로운 Scheduler 서비스 인스턴스를 생성합니다.
func NewService(watchConfig config.WatchConfig, taskRunner TaskRunner, notificationSender contract.NotificationSender) *Scheduler {
	if taskRunner == nil {
		panic("TaskRunner는 필수입니다")
	}
	if notificationSender == nil {
		panic("NotificationSender는 필수입니다")
	}

	return &Scheduler{
		interval: time.Duration(watchConfig.IntervalMinutes) * time.Minute,

		failurePolicy: watchConfig.FailurePolicy,

		taskRunner: taskRunner,

		notificationSender: notificationSender,

		doneC: make(chan struct{}),
	}
}

// Start 스케줄러를 시작하고 감시 루프를 별도의 고루틴으로 실행합니다.
//
// 루프는 시작 직후 첫 번째 작업을 즉시 실행하며, 이후 작업 완료 시마다
// 감시 주기만큼 대기한 후 다음 작업을 실행합니다.
//
// 매개변수:
//   - serviceStopCtx: 서비스 종료 신호를 받기 위한 Context.
//     취소되면 대기 중이던 루프가 즉시 종료됩니다.
//   - serviceStopWG: 서비스 종료 완료를 알리기 위한 WaitGroup
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: Scheduler 서비스 초기화 프로세스를 시작합니다")

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("Scheduler 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	s.running = true

	go s.runLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponentAndFields(component, applog.Fields{
		"interval":       s.interval.String(),
		"failure_policy": s.failurePolicy,
	}).Info("서비스 시작 완료: Scheduler 서비스가 정상적으로 초기화되었습니다")

	return nil
}

// Done 스케줄러 루프가 종료되면 닫히는 채널을 반환합니다.
//
// 루프는 서비스 종료 신호(serviceStopCtx 취소) 또는 abort 정책에 의한
// 작업 실패로 종료됩니다. 후자의 경우 Err()가 원인 에러를 반환합니다.
func (s *Scheduler) Done() <-chan struct{} {
	return s.doneC
}

// Err abort 정책으로 루프가 중단된 경우의 원인 에러를 반환합니다.
// Done() 채널이 닫힌 이후에만 호출해야 하며, 정상 종료 시에는 nil을 반환합니다.
func (s *Scheduler) Err() error {
	return s.loopErr
}

// runLoop 감시 작업을 고정 주기로 반복 실행하는 메인 루프입니다.
func (s *Scheduler) runLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()
	defer close(s.doneC)
	defer s.markStopped()

	for iteration := 1; ; iteration++ {
		// 대기 중 종료 신호를 받았을 수 있으므로 실행 전에 다시 확인합니다.
		if serviceStopCtx.Err() != nil {
			applog.WithComponent(component).Info("종료 절차 진입: Scheduler 서비스 중지 시그널을 수신했습니다")
			return
		}

		if err := s.taskRunner.RunOnce(serviceStopCtx); err != nil {
			if s.failurePolicy == config.FailurePolicyAbort {
				applog.WithComponentAndFields(component, applog.Fields{
					"iteration": iteration,
					"error":     err,
				}).Error("감시 작업 실패: abort 정책에 따라 감시 루프를 중단합니다")

				s.loopErr = err
				return
			}

			// continue 정책: 에러를 기록하고 관리자에게 알린 후 다음 주기에 재시도합니다.
			applog.WithComponentAndFields(component, applog.Fields{
				"iteration": iteration,
				"error":     err,
			}).Error("감시 작업 실패: continue 정책에 따라 다음 주기에 재시도합니다")

			if notifyErr := s.notificationSender.NotifyDefaultWithError(err.Error()); notifyErr != nil {
				applog.WithComponentAndFields(component, applog.Fields{
					"error": notifyErr,
				}).Warn("작업 실패 알림 전송이 실패하였습니다")
			}
		}

		// 작업 완료 시점을 기준으로 감시 주기만큼 대기합니다. (Fixed Delay)
		timer := time.NewTimer(s.interval)
		select {
		case <-serviceStopCtx.Done():
			timer.Stop()

			applog.WithComponent(component).Info("종료 절차 진입: Scheduler 서비스 중지 시그널을 수신했습니다")
			return

		case <-timer.C:
		}
	}
}

// markStopped 루프 종료 시 실행 상태 플래그를 해제합니다.
func (s *Scheduler) markStopped() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(component).Info("Scheduler 서비스 종료 완료: 모든 리소스가 정리되었습니다")
}
