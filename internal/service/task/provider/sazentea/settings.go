package sazentea

import (
	"net/url"
	"strings"

	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/provider"
)

// watchProductsSettings 상품 감시 작업의 설정 데이터입니다.
type watchProductsSettings struct {
	// ProductsURL 감시할 상품 목록 페이지의 URL입니다.
	ProductsURL string `json:"products_url"`

	// Brands 감시 대상 말차 브랜드 키워드 목록입니다. (OR 조건)
	Brands []string `json:"brands"`

	// IngredientKeywords 말차 상품 판별을 위한 원재료 키워드 목록입니다. (OR 조건)
	IngredientKeywords []string `json:"ingredient_keywords"`
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ provider.Validator = (*watchProductsSettings)(nil)

func (s *watchProductsSettings) Validate() error {
	s.ProductsURL = strings.TrimSpace(s.ProductsURL)
	if s.ProductsURL == "" {
		return apperrors.New(apperrors.InvalidInput, "products_url이 입력되지 않았거나 공백입니다")
	}

	// 상품 링크의 상대 경로를 절대 경로로 변환하려면 scheme과 host가 반드시 필요합니다.
	u, err := url.Parse(s.ProductsURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.Newf(apperrors.InvalidInput, "products_url이 올바른 URL 형식이 아닙니다: '%s'", s.ProductsURL)
	}

	if len(s.Brands) == 0 {
		return apperrors.New(apperrors.InvalidInput, "brands에 감시할 브랜드가 하나 이상 입력되어야 합니다")
	}
	if len(s.IngredientKeywords) == 0 {
		return apperrors.New(apperrors.InvalidInput, "ingredient_keywords에 원재료 키워드가 하나 이상 입력되어야 합니다")
	}

	return nil
}

// baseURL 상품 링크의 상대 경로를 해석하기 위한 기준 URL(scheme://host)을 반환합니다.
func (s *watchProductsSettings) baseURL() string {
	u, _ := url.Parse(s.ProductsURL)
	return u.Scheme + "://" + u.Host
}
