// Package notifier 다양한 알림 채널(이메일, 텔레그램 등)의 공통 추상화를 제공합니다.
package notifier

import (
	"context"

	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
)

// Message 알림 채널로 발송할 메시지 정보를 담고 있는 구조체입니다.
type Message struct {
	// Title 알림 메시지의 제목입니다. 비어있는 경우 채널별 기본 제목이 사용됩니다.
	Title string

	// Body 전송할 메시지 본문입니다.
	// HTML을 지원하는 채널(SupportsHTML=true)에서는 <b>, <a href="..."> 등의 태그를 사용할 수 있습니다.
	Body string

	// ErrorOccurred 오류 상황에 대한 알림인지 여부입니다.
	// true인 경우 각 채널은 수신자가 오류임을 인지할 수 있도록 메시지를 강조 표시합니다.
	ErrorOccurred bool
}

// Notifier 다양한 알림 채널(예: 이메일, 텔레그램 등)을 추상화한 인터페이스입니다.
//
// 발송은 동기적으로 수행됩니다. Notify가 에러 없이 반환되었다면
// 해당 채널로의 발송 요청이 성공적으로 완료되었음을 의미합니다.
type Notifier interface {
	// ID Notifier 인스턴스의 고유 식별자(ID)를 반환합니다.
	ID() contract.NotifierID

	// Notify 알림 메시지를 발송하고 완료될 때까지 대기합니다.
	Notify(ctx context.Context, msg Message) error

	// SupportsHTML 알림 채널이 HTML 스타일의 메시지 포맷팅을 지원하는지 여부를 반환합니다.
	SupportsHTML() bool
}

// Base 모든 Notifier 구현체가 공통적으로 임베딩하여 사용하는 기본 구조체입니다.
//
// 구체적인 Notifier 구현체(예: emailNotifier)는 이 Base를 필드로 포함함으로써,
// ID 관리와 같은 공통 책임을 Base에 위임하고 "실제로 외부 API를 호출하는 책임"에만 집중할 수 있습니다.
type Base struct {
	id contract.NotifierID

	supportsHTML bool
}

// NewBase 새로운 Base Notifier 인스턴스를 생성하고 초기화합니다.
func NewBase(id contract.NotifierID, supportsHTML bool) *Base {
	return &Base{
		id: id,

		supportsHTML: supportsHTML,
	}
}

// ID Notifier 인스턴스의 고유 식별자(ID)를 반환합니다.
func (b *Base) ID() contract.NotifierID {
	return b.id
}

// SupportsHTML 알림 채널이 HTML 스타일의 메시지 포맷팅을 지원하는지 여부를 반환합니다.
func (b *Base) SupportsHTML() bool {
	return b.supportsHTML
}
