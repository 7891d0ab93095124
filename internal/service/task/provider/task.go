// Package provider 감시 작업(Task)의 공통 실행 프레임워크를 제공합니다.
//
// 개별 감시 대상(예: sazentea)은 이 패키지의 Base를 임베딩하여
// 자신의 비즈니스 로직(ExecuteFunc)만 구현하면 되고,
// 스냅샷 로딩/저장, 알림 발송, 패닉 복구 등의 공통 처리는 Base가 담당합니다.
package provider

import (
	"context"

	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/scraper"
)

// component Task 서비스의 Provider 로깅용 컴포넌트 이름
const component = "task.provider"

// Task 개별 감시 작업의 실행 계약을 정의하는 인터페이스입니다.
//
// Service 레이어는 구현 세부사항을 알 필요 없이 이 인터페이스만으로 작업을 실행합니다.
type Task interface {
	ID() contract.TaskID
	CommandID() contract.TaskCommandID

	// NotifierID 작업 완료 시 알림을 전송할 대상 채널의 식별자를 반환합니다.
	NotifierID() contract.NotifierID

	// Run Task의 핵심 비즈니스 로직을 실행합니다.
	// 이 메서드는 동기적으로 실행되며, 작업이 완료되거나 실패할 때까지 블로킹됩니다.
	// 반환된 에러는 호출자(스케줄러)의 실패 정책 판단에 사용됩니다.
	Run(ctx context.Context, notificationSender contract.NotificationSender) error
}

// ExecuteFunc Task의 핵심 비즈니스 로직을 수행하는 함수 타입입니다.
//
// 이 함수는 가능한 한 순수 함수에 가깝게 구현되어야 합니다.
// 외부 상태를 직접 변경하지 않고, 입력(previousSnapshot)을 받아 처리한 후
// 결과(메시지, 새로운 Snapshot)를 반환하는 방식으로 동작해야 합니다.
//
// 반환값:
//   - string: 사용자에게 전송할 알림 메시지 (빈 문자열일 경우 알림 전송 안 함)
//   - any: 다음 실행을 위해 저장할 새로운 작업 결과 데이터 (nil일 경우 저장 안 함)
//   - error: 실행 중 발생한 에러 (nil이 아니면 작업 실패로 처리)
type ExecuteFunc func(ctx context.Context, previousSnapshot any, supportsHTML bool) (string, any, error)

// NewSnapshotFunc Task 작업 결과 데이터의 빈 인스턴스를 생성하는 팩토리 함수 타입입니다.
type NewSnapshotFunc func() any

// NewTaskParams 새로운 Task 생성에 필요한 매개변수들을 정의하는 구조체입니다.
type NewTaskParams struct {
	// NotifierID 작업 결과 알림을 전송할 채널의 식별자입니다.
	NotifierID contract.NotifierID

	// Storage Task 작업 결과 데이터를 영구 저장하기 위한 저장소 인터페이스입니다.
	// 이전 작업 결과 조회 및 새로운 결과 저장에 사용됩니다.
	Storage contract.TaskResultStore

	// Scraper HTML 페이지 요청 및 파싱을 수행하는 컴포넌트입니다.
	Scraper scraper.HTMLScraper

	// Settings 감시 대상별 설정 데이터입니다.
	// 각 프로바이더는 DecodeSettings를 통해 자신의 설정 타입으로 변환합니다.
	Settings any
}
