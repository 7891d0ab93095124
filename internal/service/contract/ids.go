// Package contract 서비스 계층 간에 공유되는 타입과 인터페이스를 정의합니다.
//
// NOTE: 이 패키지의 타입들은 여러 패키지(config, task, notification)에서 공통으로
// 참조되므로, 순환 참조를 피하기 위해 별도 패키지로 분리되었습니다.
package contract

// TaskID 감시 작업의 고유 ID 타입입니다.
type TaskID string

// TaskCommandID 감시 작업 내 개별 명령의 고유 ID 타입입니다.
type TaskCommandID string

// NotifierID 알림 채널의 고유 ID 타입입니다.
type NotifierID string
