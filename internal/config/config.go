package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "sazentea-watcher"

	// DefaultFilename 애플리케이션 초기화 시 참조하는 기본 설정 파일명입니다.
	// 실행 인자를 통해 명시적인 경로가 제공되지 않을 경우, 시스템은 이 파일을 탐색하여 구성을 로드합니다.
	DefaultFilename = AppName + ".json"

	// ------------------------------------------------------------------------------------------------
	// 감시 작업 기본값
	// ------------------------------------------------------------------------------------------------

	// DefaultFailurePolicy 감시 작업 실패 시 적용되는 기본 정책
	DefaultFailurePolicy = FailurePolicyAbort

	// DefaultDataDir 작업 결과 스냅샷이 저장되는 기본 디렉터리
	DefaultDataDir = "./data"
)

// 감시 작업 실패 정책 상수
const (
	// FailurePolicyAbort 감시 작업 실패 시 에러를 전파하고 루프를 중단합니다.
	FailurePolicyAbort = "abort"

	// FailurePolicyContinue 감시 작업 실패 시 에러를 기록하고 다음 주기에 재시도합니다.
	FailurePolicyContinue = "continue"
)

// AppConfig 애플리케이션의 모든 설정을 관장하는 최상위 루트 구조체
type AppConfig struct {
	Debug     bool           `json:"debug"`
	Watch     WatchConfig    `json:"watch"`
	Notifiers NotifierConfig `json:"notifiers"`
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate() error {
	// Watch 유효성 검사
	if err := c.Watch.validate(); err != nil {
		return err
	}

	// Notifiers 유효성 검사
	if _, err := c.Notifiers.validate(); err != nil {
		return err
	}

	return nil
}

// WatchConfig 상품 목록 페이지 감시 작업의 실행 조건을 정의하는 설정 구조체
type WatchConfig struct {
	// IntervalMinutes 감시 주기 (분 단위, 1 이상)
	IntervalMinutes int `json:"interval_minutes" validate:"required,min=1"`

	// ProductsURL 감시 대상 상품 목록 페이지의 URL
	ProductsURL string `json:"products_url" validate:"required,url"`

	// Brands 상품명 또는 제조사명에서 검색할 브랜드 키워드 목록 (OR 조건, 대소문자 무시)
	Brands []string `json:"brands" validate:"required,min=1,dive,required"`

	// IngredientKeywords 성분 정보에서 검색할 키워드 목록 (OR 조건, 대소문자 무시)
	IngredientKeywords []string `json:"ingredient_keywords" validate:"required,min=1,dive,required"`

	// FailurePolicy 감시 작업 실패 시 적용할 정책 (abort: 루프 중단, continue: 다음 주기 재시도)
	FailurePolicy string `json:"failure_policy" validate:"required,oneof=abort continue"`

	// DataDir 작업 결과 스냅샷이 저장될 디렉터리 경로
	DataDir string `json:"data_dir" validate:"required"`
}

func (c *WatchConfig) validate() error {
	if err := checkStruct(validate, c, "Watch"); err != nil {
		return err
	}
	return nil
}

// NotifierConfig 이메일, 텔레그램 등 다양한 알림 채널을 정의하는 설정 구조체
type NotifierConfig struct {
	DefaultNotifierID string           `json:"default_notifier_id"`
	Emails            []EmailConfig    `json:"emails"`
	Telegrams         []TelegramConfig `json:"telegrams"`
}

func (c *NotifierConfig) validate() ([]string, error) {
	// Emails 개별 유효성 검사
	for _, email := range c.Emails {
		if err := checkStruct(validate, email, fmt.Sprintf("Email Notifier['%s']", email.ID)); err != nil {
			return nil, err
		}
	}

	// Telegrams 개별 유효성 검사
	for _, telegram := range c.Telegrams {
		if err := checkStruct(validate, telegram, fmt.Sprintf("Telegram Notifier['%s']", telegram.ID)); err != nil {
			return nil, err
		}
	}

	var notifierIDs []string
	for _, email := range c.Emails {
		notifierIDs = append(notifierIDs, email.ID)
	}
	for _, telegram := range c.Telegrams {
		notifierIDs = append(notifierIDs, telegram.ID)
	}

	// Notifier 중복 ID 검사
	if err := checkUniqueValues(notifierIDs, "Notifier"); err != nil {
		return nil, err
	}

	// 알림 채널이 하나도 정의되지 않으면 매칭된 상품을 통지할 방법이 없다.
	if len(notifierIDs) == 0 {
		return nil, apperrors.New(apperrors.InvalidInput, "알림 채널(Notifier)이 하나도 정의되지 않았습니다")
	}

	// 기본 Notifier ID 검사
	if !slices.Contains(notifierIDs, c.DefaultNotifierID) {
		return nil, apperrors.New(apperrors.NotFound, fmt.Sprintf("기본 NotifierID('%s')가 정의된 Notifier 목록에 존재하지 않습니다", c.DefaultNotifierID))
	}

	return notifierIDs, nil
}

// EmailConfig SMTP 릴레이 접속 정보 및 메일 발송 정보를 담는 설정 구조체
type EmailConfig struct {
	ID        string `json:"id" validate:"required"`
	Host      string `json:"host" validate:"required"`
	Port      int    `json:"port" validate:"required,min=1,max=65535"`
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
}

// TelegramConfig 텔레그램 봇 토큰 및 채팅 ID 정보를 담는 설정 구조체
type TelegramConfig struct {
	ID       string `json:"id" validate:"required"`
	BotToken string `json:"bot_token" validate:"required,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" validate:"required"`
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	// 1. 기본값 로드 (가장 낮은 우선순위)
	err := k.Load(structs.Provider(AppConfig{
		Watch: WatchConfig{
			FailurePolicy: DefaultFailurePolicy,
			DataDir:       DefaultDataDir,
		},
	}, "json"), nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. JSON 설정 파일 로드 (기본값 덮어쓰기)
	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 3. 환경 변수 로드 (최우선 순위, JSON 설정 덮어쓰기)
	// 접두사: SAZEN_
	// 구분자: 이중 언더스코어(__)를 점(.)으로 변환 (계층 구조 표현)
	// 예: SAZEN_WATCH__INTERVAL_MINUTES -> watch.interval_minutes
	if err := k.Load(env.Provider("SAZEN_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "SAZEN_")
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	// 4. 구조체 언마샬링 (Strict Validation 적용)
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			ErrorUnused:      true, // 파일에 존재하지만 구조체에 없는 필드가 있을 경우 에러를 발생시킴
			WeaklyTypedInput: true,
		},
	}
	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	// 5. 유효성 검사 수행 (정합성 체크)
	if err := appConfig.validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}
