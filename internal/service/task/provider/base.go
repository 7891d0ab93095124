package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/scraper"
	applog "github.com/darkkaiser/sazentea-watcher/pkg/log"
)

// Base 개별 감시 작업의 실행 단위이자 상태를 관리하는 핵심 구조체입니다.
//
// 주요 특징:
//   - 상태 보존 (Stateful): storage를 통해 실행 결과를 영속화하여, 작업 실행 간의 데이터 연속성을 보장합니다.
//   - 의존성 주입 (DI): storage, scraper 등의 외부 의존성을 필드로 주입받아 테스트 용이성을 높입니다.
type Base struct {
	id        contract.TaskID
	commandID contract.TaskCommandID

	// notifierID 알림을 전송할 대상 채널의 식별자입니다.
	notifierID contract.NotifierID

	// runTime 작업 실행 시작 시각
	runTime time.Time

	// execute 실제 비즈니스 로직(스크래핑, 필터링 등)을 수행하는 함수입니다.
	execute ExecuteFunc

	// scraper 웹 요청(HTTP) 및 파싱을 수행하는 컴포넌트입니다.
	scraper scraper.HTMLScraper

	// storage 작업의 상태를 저장하고 불러오는 인터페이스입니다.
	storage contract.TaskResultStore

	// logger 고정 필드가 바인딩된 로거 인스턴스입니다.
	// 로깅 시 매번 맵을 복사하는 오버헤드를 줄이기 위해 생성 시점에 초기화하여 재사용합니다.
	logger *applog.Entry

	// newSnapshot 작업 결과 데이터(Snapshot)의 새 인스턴스를 생성하는 팩토리 함수입니다.
	newSnapshot NewSnapshotFunc
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Task = (*Base)(nil)

// BaseParams Base 구조체 초기화에 필요한 매개변수들을 정의하는 구조체입니다.
type BaseParams struct {
	ID          contract.TaskID
	CommandID   contract.TaskCommandID
	NotifierID  contract.NotifierID
	Storage     contract.TaskResultStore
	Scraper     scraper.HTMLScraper
	NewSnapshot NewSnapshotFunc
}

// NewBase Base 구조체의 필수 불변 필드들을 초기화하여 반환하는 생성자입니다.
// 하위 Task 구현체는 이 함수를 사용하여 기본 Base 필드를 초기화해야 합니다.
func NewBase(p BaseParams) *Base {
	return &Base{
		id:        p.ID,
		commandID: p.CommandID,

		notifierID: p.NotifierID,

		storage: p.Storage,
		scraper: p.Scraper,

		logger: applog.WithComponentAndFields(component, applog.Fields{
			"task_id":     p.ID,
			"command_id":  p.CommandID,
			"notifier_id": p.NotifierID,
		}),

		newSnapshot: p.NewSnapshot,
	}
}

func (t *Base) ID() contract.TaskID {
	return t.id
}

func (t *Base) CommandID() contract.TaskCommandID {
	return t.commandID
}

func (t *Base) NotifierID() contract.NotifierID {
	return t.notifierID
}

// Elapsed 작업 시작 시점부터 현재까지의 경과 시간을 반환합니다.
// 작업 시작 전에는 0을 반환합니다.
func (t *Base) Elapsed() time.Duration {
	if t.runTime.IsZero() {
		return 0
	}

	return time.Since(t.runTime)
}

// SetExecute 작업의 핵심 비즈니스 로직 함수를 등록합니다.
func (t *Base) SetExecute(fn ExecuteFunc) {
	t.execute = fn
}

// Scraper 주입된 HTML 스크래퍼를 반환합니다.
func (t *Base) Scraper() scraper.HTMLScraper {
	return t.scraper
}

// Run Task의 실행 수명 주기를 관리하는 메인 진입점입니다.
//
// 실행 순서:
//  1. 사전 검증 및 이전 스냅샷 로딩
//  2. 비즈니스 로직 실행 (execute)
//  3. 알림 발송 → 발송 성공 시 새로운 스냅샷 저장
//
// 알림 발송 실패는 작업 실패로 처리되며, 이 경우 스냅샷을 저장하지 않으므로
// 다음 실행에서 동일한 알림이 다시 시도됩니다.
func (t *Base) Run(ctx context.Context, notificationSender contract.NotificationSender) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.WithField("panic_value", r).Error("Critical: Task 내부 Panic 발생 (Recovered)")

			err = apperrors.New(apperrors.Internal, fmt.Sprintf("Task 실행 도중 Panic 발생: %v", r))
		}
	}()

	t.runTime = time.Now()

	// 1. 사전 검증 및 데이터 준비
	previousSnapshot, err := t.prepareExecution()
	if err != nil {
		return err
	}

	// 2. 작업 실행
	message, newSnapshot, err := t.execute(ctx, previousSnapshot, notificationSender.SupportsHTML(t.notifierID))
	if err != nil {
		t.logger.WithError(err).Error("작업 실행이 실패하였습니다")

		return err
	}

	// 3. 결과 처리
	// 알림 발송이 실패하면 작업 전체를 실패로 처리합니다.
	// 스냅샷은 알림 발송 성공 후에만 저장하여, 발송 실패 시 다음 실행에서 재시도되도록 합니다.
	if len(message) > 0 {
		if err := notificationSender.Notify(t.notifierID, "", message, false); err != nil {
			return apperrors.Wrap(err, apperrors.ExecutionFailed, "작업 결과 알림 발송이 실패하였습니다")
		}
	}

	if newSnapshot != nil {
		if err := t.storage.Save(t.id, t.commandID, newSnapshot); err != nil {
			// 알림은 이미 전송되었으므로, 저장 실패는 다음 실행 시 중복 알림으로 이어질 수 있습니다.
			t.logger.WithError(err).Error("작업 결과 저장 실패: 다음 실행 시 중복 알림이 발생할 수 있습니다")

			return apperrors.Wrap(err, apperrors.System, "작업 결과 저장이 실패하였습니다")
		}
	}

	t.logger.WithField("elapsed", t.Elapsed().String()).Debug("작업 실행 완료")

	return nil
}

// prepareExecution 실행 전 필요한 조건을 검증하고 이전 스냅샷을 준비합니다.
func (t *Base) prepareExecution() (any, error) {
	if t.execute == nil {
		return nil, apperrors.New(apperrors.Internal, "Execute()가 초기화되지 않았습니다")
	}
	if t.storage == nil {
		return nil, apperrors.New(apperrors.Internal, "Storage가 초기화되지 않았습니다")
	}

	var snapshot any
	if t.newSnapshot != nil {
		snapshot = t.newSnapshot()
	}
	if snapshot == nil {
		return nil, apperrors.New(apperrors.Internal, "작업결과데이터 생성이 실패하였습니다")
	}

	if err := t.storage.Load(t.id, t.commandID, snapshot); err != nil {
		if errors.Is(err, contract.ErrTaskResultNotFound) {
			// 최초 실행 시에는 데이터가 없는 것이 정상입니다.
			t.logger.Info("이전 작업 결과가 없습니다 (최초 실행)")
		} else {
			// 불완전한 상태로 작업을 강행하면 중복 알림 등 오동작이 발생할 수 있으므로
			// 즉시 실패 처리합니다.
			return nil, apperrors.Wrap(err, apperrors.System, "이전 작업 결과 로딩이 실패하였습니다")
		}
	}

	return snapshot, nil
}
