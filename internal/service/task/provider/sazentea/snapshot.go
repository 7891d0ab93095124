package sazentea

import "slices"

// Snapshot 알림이 발송된 상품들의 식별 키 집합입니다.
//
// 매 실행마다 저장소에서 불러와 이미 알림을 발송한 상품을 걸러내는 데 사용되며,
// 알림 발송이 성공한 후에만 갱신되어 저장됩니다.
// 발송 실패 시 갱신되지 않으므로 다음 실행에서 동일한 상품이 다시 알림 대상이 됩니다.
type Snapshot struct {
	// NotifiedProducts 알림이 발송된 상품들의 식별 키(Product.Identity) 목록입니다.
	NotifiedProducts []string `json:"notified_products"`
}

// NewSnapshot 빈 Snapshot 인스턴스를 생성합니다.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Contains 지정된 식별 키의 상품이 이미 알림 발송되었는지 검사합니다.
func (s *Snapshot) Contains(identity string) bool {
	return slices.Contains(s.NotifiedProducts, identity)
}

// MarkNotified 지정된 식별 키들을 발송 완료 목록에 추가한 새로운 Snapshot을 반환합니다.
// 원본 Snapshot은 변경하지 않으며, 이미 포함된 키는 중복 추가하지 않습니다.
func (s *Snapshot) MarkNotified(identities ...string) *Snapshot {
	merged := &Snapshot{
		NotifiedProducts: slices.Clone(s.NotifiedProducts),
	}

	for _, identity := range identities {
		if !merged.Contains(identity) {
			merged.NotifiedProducts = append(merged.NotifiedProducts, identity)
		}
	}

	return merged
}
