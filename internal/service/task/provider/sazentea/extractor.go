package sazentea

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	applog "github.com/darkkaiser/sazentea-watcher/pkg/log"
)

// extractProducts 목록 문서에서 상품 링크를 수집한 후, 각 상세 페이지를 순차적으로
// 방문하며 상품 정보를 추출합니다.
//
// 개별 상세 페이지의 요청 실패나 구조 불일치는 경고 로그를 남기고 해당 상품만 건너뛰며,
// 나머지 상품의 추출은 계속 진행됩니다. 추출 결과는 목록 페이지의 문서 순서를 유지합니다.
func (t *task) extractProducts(ctx context.Context, doc *goquery.Document) ([]Product, error) {
	links := t.collectProductLinks(doc)

	products := make([]Product, 0, len(links))
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ExecutionFailed, "상품 정보 추출 도중 작업이 취소되었습니다")
		}

		detailDoc, err := t.Scraper().FetchDocument(ctx, link, nil)
		if err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"url":   link,
				"error": err,
			}).Warn("상품 상세 페이지 요청 실패: 해당 상품을 건너뜁니다")

			continue
		}

		product, err := parseProductDetail(detailDoc, link)
		if err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"url":   link,
				"error": err,
			}).Warn("상품 상세 페이지 구조 불일치: 해당 상품을 건너뜁니다")

			continue
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"name":        product.Name,
			"item_code":   product.Code.String(),
			"maker":       product.Maker.String(),
			"ingredients": product.Ingredients.String(),
			"url":         product.URL,
		}).Debug("상품 발견")

		products = append(products, *product)
	}

	return products, nil
}

// collectProductLinks 목록 문서의 .product 요소들에서 상품 상세 페이지 링크를 수집합니다.
//
// 각 상품 요소의 첫 번째 앵커(a)의 href를 목록 페이지의 scheme://host 기준으로
// 절대 URL로 변환합니다. 앵커나 href가 없는 상품 요소는 조용히 제외됩니다.
func (t *task) collectProductLinks(doc *goquery.Document) []string {
	base := t.settings.baseURL()

	var links []string
	doc.Find(".product").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Find("a").First().Attr("href")
		if !exists || strings.TrimSpace(href) == "" {
			return
		}

		links = append(links, base+href)
	})

	return links
}

// parseProductDetail 상품 상세 페이지 문서에서 상품 정보를 추출합니다.
//
// 상품명(h1[itemprop=name])과 상품 정보 영역(#product-info)은 필수이며,
// 둘 중 하나라도 없으면 구조 불일치로 처리됩니다.
// 정보 영역 내 개별 항목(Item code, Maker, Ingredients)은 선택 사항으로,
// 누락되거나 형식이 잘못된 항목은 해당 필드만 "없음"으로 표시됩니다.
func parseProductDetail(doc *goquery.Document, link string) (*Product, error) {
	nameSel := doc.Find(`h1[itemprop="name"]`).First()
	if nameSel.Length() == 0 {
		return nil, apperrors.New(apperrors.ParsingFailed, "상품명(h1[itemprop=name]) 요소를 찾을 수 없습니다")
	}

	if doc.Find("#product-info").Length() == 0 {
		return nil, apperrors.New(apperrors.ParsingFailed, "상품 정보(#product-info) 영역을 찾을 수 없습니다")
	}

	// 정보 항목은 "라벨: 값" 형식의 p 요소로 구성됩니다.
	// 첫 번째 콜론을 기준으로 분리하며, 콜론이 없는 항목은 형식 오류로 무시됩니다.
	info := make(map[string]string)
	doc.Find("#product-info > p").Each(func(_ int, sel *goquery.Selection) {
		label, value, found := strings.Cut(sel.Text(), ":")
		if !found {
			return
		}

		info[strings.TrimSpace(label)] = strings.TrimSpace(value)
	})

	return &Product{
		URL:  link,
		Name: strings.TrimSpace(nameSel.Text()),

		Code:        detailField(info, infoLabelItemCode),
		Maker:       detailField(info, infoLabelMaker),
		Ingredients: detailField(info, infoLabelIngredients),
	}, nil
}

// detailField 정보 항목 맵에서 지정된 라벨의 값을 찾아 DetailField로 변환합니다.
func detailField(info map[string]string, label string) DetailField {
	value, present := info[label]
	return DetailField{Value: value, Present: present}
}
