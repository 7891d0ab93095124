package sazentea

// filterMatchaProducts 추출된 상품 목록에서 말차 상품만 걸러냅니다.
//
// 매칭 조건 (둘 다 만족해야 함):
//  1. 브랜드 키워드 중 하나가 상품명 또는 제조사에 포함 (대소문자 무시)
//  2. 원재료 키워드 중 하나가 원재료 정보에 포함 (대소문자 무시)
//
// 순수 함수로 입력 순서를 유지하며, 동일한 입력에 대해 항상 동일한 결과를 반환합니다.
// 값이 없는 필드(빈 문자열)는 어떤 키워드와도 매칭되지 않습니다.
func (t *task) filterMatchaProducts(products []Product) []Product {
	matched := make([]Product, 0, len(products))

	for i := range products {
		p := &products[i]

		if !t.brandMatcher.Match(p.Name, p.Maker.Value) {
			continue
		}
		if !t.ingredientMatcher.Match(p.Ingredients.Value) {
			continue
		}

		matched = append(matched, *p)
	}

	return matched
}
