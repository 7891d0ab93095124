package strutil

import (
	"strings"
)

// KeywordMatcher 키워드 매칭을 수행하는 상태 기반(Stateful) 구조체입니다.
//
// 생성 시점에 키워드 전처리(공백 제거, 소문자 변환)를 수행합니다.
// 따라서 동일한 키워드 셋으로 여러 문자열을 검사해야 하는 대량 처리 상황에서
// 반복적인 파싱과 메모리 할당 비용을 제거합니다.
type KeywordMatcher struct {
	// keywords 매칭 대상 키워드 목록 (OR 조건)
	// 이 중 하나라도 포함되면 매칭 성공으로 간주합니다.
	keywords []string
}

// NewKeywordMatcher 주어진 키워드 목록으로 새로운 KeywordMatcher를 생성합니다.
// 빈 키워드는 제외되며, 모든 키워드는 소문자로 변환되어 보관됩니다.
func NewKeywordMatcher(keywords []string) *KeywordMatcher {
	m := &KeywordMatcher{
		keywords: make([]string, 0, len(keywords)),
	}

	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		m.keywords = append(m.keywords, strings.ToLower(k))
	}

	return m
}

// Match 대상 문자열들 중 하나라도 키워드를 포함하는지 검사합니다.
//
// 전달된 문자열들 중 어느 하나가 키워드 목록의 키워드 중 하나를
// 대소문자 구분 없이 포함하면 true를 반환합니다.
func (m *KeywordMatcher) Match(targets ...string) bool {
	for _, k := range m.keywords {
		for _, s := range targets {
			if ContainsFold(s, k) {
				return true
			}
		}
	}
	return false
}

// Empty 보관 중인 키워드가 하나도 없는지 검사합니다.
func (m *KeywordMatcher) Empty() bool {
	return len(m.keywords) == 0
}

// ContainsFold 문자열 s가 substr을 대소문자 구분 없이 포함하는지 검사합니다.
//
// [설계 의도]
// 표준 라이브러리의 strings.ToLower(s)를 사용할 경우, 매 호출마다 전체 문자열의 복사본을 힙에 할당하게 됩니다.
// 이 함수는 메모리 할당을 0(Zero Allocation)으로 억제하기 위해, 원본 문자열을 순회하며
// 필요한 부분만 슬라이싱하여 strings.EqualFold로 비교하는 방식을 채택했습니다.
//
// [제한사항]
// 이 최적화는 대소문자 변환 시 바이트 길이가 동일하다는 가정에 의존합니다.
// 대부분의 언어(ASCII, 한글, 중국어, 일본어 등)에서는 정상 동작하지만,
// 터키어(İ/i)와 같이 대소문자 변환 시 바이트 길이가 달라지는 특수 케이스에서는
// 정확하지 않은 결과를 반환할 수 있습니다.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	if len(s) < len(substr) {
		return false
	}

	// 문자열 s를 range로 순회하면 각 Rune의 '시작 바이트 인덱스(i)'를 얻을 수 있습니다.
	// 현재 위치(i)에서 substr 길이만큼의 부분 문자열을 슬라이싱(Zero Allocation)하여,
	// strings.EqualFold로 대소문자 구분 없이 비교합니다.
	for i := range s {
		if i+len(substr) > len(s) {
			break
		}
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return true
		}
	}
	return false
}
