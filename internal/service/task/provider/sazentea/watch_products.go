package sazentea

import (
	"context"

	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	applog "github.com/darkkaiser/sazentea-watcher/pkg/log"
)

// watchProducts 말차 신상품 감시 작업의 핵심 비즈니스 로직입니다.
//
// 실행 흐름:
//  1. 상품 목록 페이지 요청 및 파싱
//  2. 각 상품 상세 페이지 순회 및 정보 추출
//  3. 브랜드/원재료 키워드 매칭으로 말차 상품 필터링
//  4. 이미 알림을 발송한 상품 제외 (Notified Set)
//  5. 새로운 말차 상품이 있으면 알림 메시지 생성
//
// 목록 페이지 요청 실패는 작업 실패로 처리되지만,
// 개별 상세 페이지의 실패는 해당 상품만 건너뛰고 계속 진행됩니다.
func (t *task) watchProducts(ctx context.Context, previousSnapshot any, supportsHTML bool) (string, any, error) {
	snapshot, ok := previousSnapshot.(*Snapshot)
	if !ok {
		return "", nil, apperrors.New(apperrors.Internal, "작업결과데이터 타입이 유효하지 않습니다")
	}

	logger := applog.WithComponentAndFields(component, applog.Fields{
		"url": t.settings.ProductsURL,
	})
	logger.Info("작업 실행: 상품 목록 페이지 확인을 시작합니다")

	doc, err := t.Scraper().FetchDocument(ctx, t.settings.ProductsURL, nil)
	if err != nil {
		return "", nil, err
	}

	products, err := t.extractProducts(ctx, doc)
	if err != nil {
		return "", nil, err
	}

	matched := t.filterMatchaProducts(products)

	// 이미 알림을 발송한 상품은 제외하여 반복 알림을 억제합니다.
	fresh := make([]Product, 0, len(matched))
	for i := range matched {
		if !snapshot.Contains(matched[i].Identity()) {
			fresh = append(fresh, matched[i])
		}
	}

	logger.WithFields(applog.Fields{
		"total_products":   len(products),
		"matched_products": len(matched),
		"fresh_products":   len(fresh),
	}).Info("상품 확인 완료")

	if len(fresh) == 0 {
		logger.Info("새로 알림할 말차 상품이 없습니다")

		return "", nil, nil
	}

	identities := make([]string, 0, len(fresh))
	for i := range fresh {
		identities = append(identities, fresh[i].Identity())
	}

	return renderMessage(fresh, supportsHTML), snapshot.MarkNotified(identities...), nil
}
