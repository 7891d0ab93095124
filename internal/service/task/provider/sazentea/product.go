package sazentea

import (
	"fmt"
	"hash/fnv"
)

// 상품 상세 페이지의 #product-info 영역에서 추출하는 정보 항목의 라벨입니다.
const (
	infoLabelItemCode    = "Item code"
	infoLabelMaker       = "Maker"
	infoLabelIngredients = "Ingredients"
)

// DetailField 상품 상세 페이지에서 추출한 선택적 필드 값입니다.
//
// 상세 페이지의 정보 항목이 누락되거나 형식이 잘못된 경우에도 상품 레코드 자체는 유지하되,
// 해당 필드가 "존재하지 않음"을 명시적으로 표현합니다.
type DetailField struct {
	Value   string `json:"value"`
	Present bool   `json:"present"`
}

// String 필드 값을 반환하며, 값이 없는 경우 표시용 플레이스홀더를 반환합니다.
func (f DetailField) String() string {
	if !f.Present {
		return "(unknown)"
	}
	return f.Value
}

// Product 상품 목록 페이지와 상세 페이지에서 추출한 단일 상품 정보입니다.
//
// 매 작업 실행마다 새로 생성되며, 상품 엔티티로 영속화되지 않습니다.
type Product struct {
	// URL 상품 상세 페이지의 절대 URL입니다.
	URL string

	// Name 상세 페이지의 h1[itemprop=name]에서 추출한 상품명입니다.
	Name string

	Code        DetailField
	Maker       DetailField
	Ingredients DetailField
}

// Identity 알림 중복 방지(Notified Set)에 사용하는 상품의 고유 식별 키를 반환합니다.
//
// 상품명과 상품 코드를 조합한 64비트 해시입니다. 단순 연결 시 서로 다른 입력이
// 같은 키가 될 수 있으므로 길이 접두사를 붙여 해싱합니다.
func (p *Product) Identity() string {
	hasher := fnv.New64a()
	_, _ = fmt.Fprintf(hasher, "%d:%s|%d:%s", len(p.Name), p.Name, len(p.Code.Value), p.Code.Value)

	return fmt.Sprintf("%016x", hasher.Sum64())
}
