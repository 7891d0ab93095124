// Package fetcher HTTP 요청 수행을 위한 공통 인터페이스와 기본 구현체를 제공합니다.
package fetcher

import (
	"context"
	"io"
	"net/http"
)

// drainLimit 커넥션 재사용을 위해 응답 본문을 비울 때 읽어들일 최대 크기입니다.
const drainLimit = 64 * 1024 // 64KB

// Fetcher HTTP 요청을 수행하는 핵심 인터페이스입니다.
//
// 이 인터페이스는 다양한 HTTP 클라이언트 구현체들이 공통으로 따르는 규약을 정의합니다.
// 테스트 시 가짜 응답을 주입하거나, 로깅 등의 기능을 데코레이터 패턴으로 조합할 수 있도록 설계되었습니다.
//
// 구현 시 주의사항:
//   - 반환된 응답 객체의 Body는 반드시 호출자가 닫아야 합니다.
//   - Context 취소 시 즉시 요청을 중단하고 적절한 에러를 반환해야 합니다.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Get 지정된 URL로 HTTP GET 요청을 전송하는 헬퍼 함수입니다.
//
// 이 함수는 Fetcher 인터페이스의 모든 구현체에서 공통으로 사용할 수 있으며,
// http.Request 객체를 직접 생성하는 번거로움을 줄여줍니다.
//
// 반환된 응답 객체의 Body는 호출자가 반드시 닫아야 합니다.
// 요청 실패 시 커넥션 재사용을 위해 응답 객체의 Body를 자동으로 읽어서 버리고 닫습니다.
func Get(ctx context.Context, f Fetcher, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Do(req)
	if err != nil {
		if resp != nil {
			// 커넥션 재사용을 위해 응답 객체의 Body를 안전하게 비우고 닫음
			drainAndCloseBody(resp.Body)
		}

		return nil, err
	}

	return resp, nil
}

// drainAndCloseBody 응답 본문의 잔여 데이터를 읽어서 버린 후 닫습니다.
// Keep-Alive 커넥션이 재사용될 수 있도록 보장합니다.
func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, drainLimit))
	_ = body.Close()
}
