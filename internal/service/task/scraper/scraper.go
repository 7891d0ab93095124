// Package scraper HTML 페이지를 가져와 goquery 문서로 파싱하는 기능을 제공합니다.
package scraper

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/fetcher"
	applog "github.com/darkkaiser/sazentea-watcher/pkg/log"
	"golang.org/x/net/html/charset"
)

// component Task 서비스의 Scraper 로깅용 컴포넌트 이름
const component = "task.scraper"

// defaultMaxBodySize HTTP 응답 본문의 기본 최대 크기입니다.
// 메모리 사용량을 제어하고 악의적인 대용량 데이터로부터 시스템을 보호하기 위해 사용됩니다.
const defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

// HTMLScraper HTML 페이지 스크래핑을 위한 인터페이스입니다.
//
// 웹 페이지에서 HTML 문서를 가져오고 파싱하는 기능을 제공합니다.
// goquery.Document를 반환하여 CSS 선택자 기반의 데이터 추출을 지원합니다.
type HTMLScraper interface {
	// FetchDocument 지정된 URL로 GET 요청을 보내 HTML 문서를 가져오고, 파싱된 goquery.Document를 반환합니다.
	//
	// 네트워크 오류, 2xx 이외의 응답 상태, 응답 본문 파싱 실패는 모두
	// 하나의 요청 실패(ExecutionFailed)로 처리됩니다. 재시도는 수행하지 않습니다.
	FetchDocument(ctx context.Context, urlStr string, header http.Header) (*goquery.Document, error)

	// ParseReader io.Reader로부터 HTML 문서를 파싱하여 goquery.Document를 반환합니다.
	// 이미 메모리에 로드된 HTML 데이터(문자열 등)를 처리할 때 유용하게 사용됩니다.
	// urlStr 인자는 문서 내 상대 경로 링크 처리를 위해 사용됩니다. (선택 사항)
	// contentType 인자는 인코딩 감지를 위해 사용됩니다. (선택 사항, 예: "text/html; charset=euc-kr")
	ParseReader(ctx context.Context, r io.Reader, urlStr string, contentType string) (*goquery.Document, error)
}

// scraper HTMLScraper 인터페이스의 구현체입니다.
//
// Fetcher를 통해 HTTP 요청을 수행하고, 인코딩 자동 감지(EUC-KR, UTF-8 등)와
// 응답 크기 제한을 통한 메모리 보호 기능을 제공합니다.
type scraper struct {
	// fetcher 실제 HTTP 요청을 수행하는 컴포넌트입니다.
	fetcher fetcher.Fetcher

	// maxResponseBodySize HTTP 응답 본문의 최대 읽기 크기(바이트)입니다.
	maxResponseBodySize int64
}

// Option scraper 설정을 커스터마이징하기 위한 함수형 옵션 타입입니다.
type Option func(*scraper)

// WithMaxResponseBodySize HTTP 응답 본문의 최대 읽기 크기를 설정합니다.
func WithMaxResponseBodySize(size int64) Option {
	return func(s *scraper) {
		if size > 0 {
			s.maxResponseBodySize = size
		}
	}
}

// New 새로운 HTMLScraper 인터페이스 구현체를 생성합니다.
func New(f fetcher.Fetcher, opts ...Option) HTMLScraper {
	if f == nil {
		panic("Fetcher는 필수입니다")
	}

	s := &scraper{
		fetcher: f,

		maxResponseBodySize: defaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FetchDocument 지정된 URL로 GET 요청을 보내 HTML 문서를 가져오고, 파싱된 goquery.Document를 반환합니다.
func (s *scraper) FetchDocument(ctx context.Context, urlStr string, header http.Header) (*goquery.Document, error) {
	logger := applog.WithComponentAndFields(component, applog.Fields{
		"url": urlStr,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ExecutionFailed, "HTTP 요청 생성에 실패하였습니다: '%s'", urlStr)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := s.fetcher.Do(req)
	if err != nil {
		logger.WithError(err).Error("[실패]: HTTP 요청 전송 실패")

		return nil, apperrors.Wrapf(err, apperrors.ExecutionFailed, "페이지 요청에 실패하였습니다: '%s'", urlStr)
	}
	defer resp.Body.Close()

	// 2xx 이외의 응답은 요청 실패로 처리합니다.
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		logger.WithField("status_code", resp.StatusCode).Error("[실패]: 비정상 응답 상태 코드 수신")

		return nil, apperrors.Newf(apperrors.ExecutionFailed, "페이지 요청이 비정상 상태 코드(%d)로 응답되었습니다: '%s'", resp.StatusCode, urlStr)
	}

	// 상대 경로 링크 처리를 위한 기준 URL 결정
	// 리다이렉션 후의 최종 URL(Response.Request.URL)을 우선 사용하며,
	// Request 객체가 없는 경우(Mocking 등)를 대비해 초기 요청 URL을 Fallback으로 사용합니다.
	var baseURL *url.URL
	if resp.Request != nil {
		baseURL = resp.Request.URL
	} else if parsedURL, err := url.Parse(urlStr); err == nil {
		baseURL = parsedURL
	}

	contentType := resp.Header.Get("Content-Type")

	limitedReader := io.LimitReader(resp.Body, s.maxResponseBodySize)

	doc, err := s.parseHTML(limitedReader, baseURL, contentType)
	if err != nil {
		logger.WithError(err).
			WithField("content_type", contentType).
			Error("[실패]: HTML 파싱 에러, goquery Document 생성 실패")

		return nil, apperrors.Wrapf(err, apperrors.ExecutionFailed, "페이지 응답 본문 파싱에 실패하였습니다: '%s'", urlStr)
	}

	logger.WithFields(applog.Fields{
		"status_code":  resp.StatusCode,
		"content_type": contentType,
	}).Debug("[성공]: HTML 요청 및 파싱 완료")

	return doc, nil
}

// ParseReader io.Reader로부터 HTML 문서를 파싱하여 goquery.Document를 반환합니다.
func (s *scraper) ParseReader(ctx context.Context, r io.Reader, urlStr string, contentType string) (*goquery.Document, error) {
	if r == nil {
		return nil, apperrors.New(apperrors.Internal, "ParseReader: reader는 nil일 수 없습니다")
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ExecutionFailed, "컨텍스트가 취소되었습니다")
	}

	var targetURL *url.URL
	if urlStr != "" {
		u, err := url.Parse(urlStr)
		if err != nil {
			// URL 정보는 상대 경로 링크 처리에만 사용되므로, 파싱 자체를 막을 필요는 없습니다.
			applog.WithComponent(component).WithField("url_string", urlStr).
				Warn("HTML 파싱 중 잘못된 URL 형식이 감지되었습니다. (상대 경로 링크 처리가 제한될 수 있음)")
		} else {
			targetURL = u
		}
	}

	limitedReader := io.LimitReader(r, s.maxResponseBodySize)

	doc, err := s.parseHTML(limitedReader, targetURL, contentType)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ParsingFailed, "HTML 데이터 파싱이 실패하였습니다")
	}
	return doc, nil
}

// parseHTML HTML 데이터 파싱 및 Document 생성을 담당하는 내부 공통 메서드입니다.
//
// charset.NewReader의 불투명한 버퍼링으로 인한 데이터 소실을 방지하기 위해,
// bufio.Reader로 먼저 데이터를 Peek한 후 인코딩을 결정하고
// 결정된 인코딩으로 원본 Reader를 래핑하여 파싱합니다.
func (s *scraper) parseHTML(r io.Reader, targetURL *url.URL, contentType string) (*goquery.Document, error) {
	bufReader := bufio.NewReader(r)

	// 1KB를 미리 읽어서 인코딩 감지 시도 (에러(EOF 등)가 발생해도 읽은 만큼 반환)
	const peekSize = 1024
	peekBytes, _ := bufReader.Peek(peekSize)

	e, _, _ := charset.DetermineEncoding(peekBytes, contentType)

	var utf8Reader io.Reader
	if e != nil {
		utf8Reader = e.NewDecoder().Reader(bufReader)
	} else {
		// 감지 실패 시 UTF-8로 가정하고 원본 리더를 사용합니다.
		utf8Reader = bufReader
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, err
	}

	// 상대 경로 링크 처리를 위해 Document에 URL 정보 주입
	if targetURL != nil {
		doc.Url = targetURL
	}

	return doc, nil
}
