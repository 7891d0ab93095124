// Package sazentea Sazen Tea 상품 목록 페이지에서 말차 신상품을 감시하는 Task를 제공합니다.
//
// 상품 목록 페이지에서 상품 링크를 수집하고, 각 상세 페이지를 순회하며 상품 정보를 추출한 후,
// 설정된 브랜드/원재료 키워드와 매칭되는 상품이 발견되면 알림 메시지를 생성합니다.
package sazentea

import (
	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/provider"
	"github.com/darkkaiser/sazentea-watcher/pkg/strutil"
)

// component Sazen Tea Task 로깅용 컴포넌트 이름
const component = "task.sazentea"

const (
	// TaskID Sazen Tea 감시 작업의 고유 ID입니다.
	TaskID contract.TaskID = "sazentea"

	// CommandIDWatchProducts 말차 신상품 감시 명령의 ID입니다.
	CommandIDWatchProducts contract.TaskCommandID = "watch_products"
)

// task Sazen Tea 상품 감시 Task 구현체입니다.
type task struct {
	*provider.Base

	settings *watchProductsSettings

	// brandMatcher 상품명/제조사에 대한 브랜드 키워드 매칭기입니다.
	brandMatcher *strutil.KeywordMatcher

	// ingredientMatcher 원재료 정보에 대한 말차 키워드 매칭기입니다.
	ingredientMatcher *strutil.KeywordMatcher
}

// NewTask 설정을 검증하고 새로운 Sazen Tea 감시 Task를 생성합니다.
func NewTask(p provider.NewTaskParams) (provider.Task, error) {
	settings, err := provider.DecodeSettings[watchProductsSettings](p.Settings)
	if err != nil {
		return nil, err
	}

	if p.Scraper == nil {
		return nil, apperrors.New(apperrors.Internal, "Scraper는 필수입니다")
	}

	t := &task{
		Base: provider.NewBase(provider.BaseParams{
			ID:          TaskID,
			CommandID:   CommandIDWatchProducts,
			NotifierID:  p.NotifierID,
			Storage:     p.Storage,
			Scraper:     p.Scraper,
			NewSnapshot: func() any { return NewSnapshot() },
		}),

		settings: settings,

		brandMatcher:      strutil.NewKeywordMatcher(settings.Brands),
		ingredientMatcher: strutil.NewKeywordMatcher(settings.IngredientKeywords),
	}

	t.SetExecute(t.watchProducts)

	return t, nil
}
