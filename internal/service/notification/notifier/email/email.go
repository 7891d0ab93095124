// Package email SMTP를 통해 HTML 형식의 이메일 알림을 발송하는 Notifier 구현을 제공합니다.
package email

import (
	"context"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/darkkaiser/sazentea-watcher/internal/config"
	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
	"github.com/darkkaiser/sazentea-watcher/internal/service/notification/notifier"
	applog "github.com/darkkaiser/sazentea-watcher/pkg/log"
)

// component 이메일 Notifier 로깅용 컴포넌트 이름
const component = "notification.email"

// errorSubjectPrefix 오류 알림 발송 시 제목 앞에 붙는 접두사입니다.
// 수신자가 제목만 보고도 오류 상황임을 인지할 수 있도록 합니다.
const errorSubjectPrefix = "[오류] "

// sendMailFunc SMTP 메일 발송 함수 타입입니다.
// 기본 구현은 smtp.SendMail이며, 테스트에서 가짜 구현으로 대체할 수 있습니다.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// emailNotifier SMTP 기반의 이메일 Notifier 구현체입니다.
//
// 이메일 채널은 HTML 형식을 지원(SupportsHTML=true)하므로,
// 메시지 본문에 <b>, <ul>, <a href="..."> 등의 태그를 사용할 수 있습니다.
type emailNotifier struct {
	*notifier.Base

	host string
	port int

	username string
	password string

	from *mail.Address
	to   *mail.Address

	// defaultSubject 메시지에 별도 제목이 없을 때 사용하는 기본 제목입니다.
	defaultSubject string

	sendMail sendMailFunc
}

// New 설정 정보를 바탕으로 새로운 이메일 Notifier를 생성합니다.
//
// 발신자/수신자 이메일 주소의 형식이 올바르지 않은 경우 InvalidInput 에러를 반환합니다.
func New(cfg *config.EmailConfig) (notifier.Notifier, error) {
	return newWithSender(cfg, smtp.SendMail)
}

// newWithSender 메일 발송 함수를 주입받아 이메일 Notifier를 생성하는 내부 생성자입니다.
func newWithSender(cfg *config.EmailConfig, send sendMailFunc) (notifier.Notifier, error) {
	from, err := mail.ParseAddress(cfg.Sender)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.InvalidInput, "발신자 이메일 주소 형식이 올바르지 않습니다: '%s'", cfg.Sender)
	}

	to, err := mail.ParseAddress(cfg.Recipient)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.InvalidInput, "수신자 이메일 주소 형식이 올바르지 않습니다: '%s'", cfg.Recipient)
	}

	return &emailNotifier{
		Base: notifier.NewBase(contract.NotifierID(cfg.ID), true),

		host: cfg.Host,
		port: cfg.Port,

		username: cfg.Username,
		password: cfg.Password,

		from: from,
		to:   to,

		defaultSubject: cfg.Subject,

		sendMail: send,
	}, nil
}

// Notify 알림 메시지를 이메일로 발송하고 완료될 때까지 대기합니다.
func (n *emailNotifier) Notify(ctx context.Context, msg notifier.Message) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ExecutionFailed, "이메일 발송이 취소되었습니다")
	}

	subject := n.defaultSubject
	if msg.Title != "" {
		subject = msg.Title
	}
	if msg.ErrorOccurred {
		subject = errorSubjectPrefix + subject
	}

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	auth := smtp.PlainAuth("", n.username, n.password, n.host)

	if err := n.sendMail(addr, auth, n.from.Address, []string{n.to.Address}, n.buildMessage(subject, msg.Body)); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.ID(),
			"smtp_addr":   addr,
			"error":       err,
		}).Error("발송 실패: SMTP 서버로의 이메일 전송에서 오류가 발생했습니다")

		return apperrors.Wrapf(err, apperrors.ExecutionFailed, "이메일 발송에 실패하였습니다(Notifier:%s)", n.ID())
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"notifier_id": n.ID(),
		"recipient":   n.to.Address,
		"subject":     subject,
	}).Info("발송 성공: 이메일이 정상 전송되었습니다")

	return nil
}

// buildMessage RFC 5322 형식의 원시 이메일 메시지를 생성합니다.
//
// 본문은 HTML 형식으로 전송되며, 제목은 한글 등 비ASCII 문자를 위해
// RFC 2047 Q-인코딩으로 처리합니다.
func (n *emailNotifier) buildMessage(subject, body string) []byte {
	var sb strings.Builder

	sb.WriteString("From: " + n.from.String() + "\r\n")
	sb.WriteString("To: " + n.to.String() + "\r\n")
	sb.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	return []byte(sb.String())
}
