package provider

import (
	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/pkg/maputil"
)

// Validator 설정 데이터의 유효성을 스스로 검증하는 인터페이스입니다.
type Validator interface {
	Validate() error
}

// DecodeSettings 설정 데이터를 프로바이더별 설정 타입으로 디코딩하고 검증합니다.
//
// 입력은 map[string]any 또는 설정 레이어의 구조체 모두 가능합니다.
// Validator 인터페이스를 구현한 경우 자동으로 유효성 검사(Validate)를 수행합니다.
func DecodeSettings[T any](input any) (*T, error) {
	settings, err := maputil.Decode[T](input)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "Task 설정 디코딩이 실패하였습니다")
	}

	// Validator 인터페이스를 구현하고 있다면 유효성 검증을 수행합니다.
	if v, ok := any(settings).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.InvalidInput, "Task 설정이 유효하지 않습니다")
		}
	}

	return settings, nil
}
