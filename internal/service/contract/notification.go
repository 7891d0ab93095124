package contract

// NotificationSender 알림 발송 기능을 제공하는 인터페이스입니다.
// 감시 작업(Task)과 같은 클라이언트는 이 인터페이스를 통해 알림 서비스를 사용합니다.
type NotificationSender interface {
	// Notify 지정된 Notifier를 통해 제목을 포함한 알림 메시지를 발송합니다.
	// errorOccurred 플래그를 통해 해당 알림이 오류 상황에 대한 것인지 명시할 수 있습니다.
	//
	// 파라미터:
	//   - notifierID: 알림을 발송할 대상 Notifier의 식별자
	//   - title: 알림 메시지의 제목
	//   - message: 전송할 메시지 내용
	//   - errorOccurred: 오류 발생 여부
	Notify(notifierID NotifierID, title string, message string, errorOccurred bool) error

	// NotifyDefault 시스템에 설정된 기본 Notifier를 통해 알림 메시지를 발송합니다.
	NotifyDefault(title string, message string) error

	// NotifyDefaultWithError 시스템에 설정된 기본 Notifier를 통해 "오류" 성격의 알림 메시지를 발송합니다.
	// 시스템 내부 에러, 작업 실패 등 관리자의 주의가 필요한 긴급 상황 알림에 적합합니다.
	NotifyDefaultWithError(message string) error

	// SupportsHTML 지정된 ID의 Notifier가 HTML 형식을 지원하는지 여부를 반환합니다.
	SupportsHTML(notifierID NotifierID) bool

	// DefaultNotifierID 시스템에 설정된 기본 Notifier의 식별자를 반환합니다.
	DefaultNotifierID() NotifierID
}
