package sazentea

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/darkkaiser/sazentea-watcher/internal/pkg/errors"
	"github.com/darkkaiser/sazentea-watcher/internal/service/contract"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/fetcher"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/provider"
	"github.com/darkkaiser/sazentea-watcher/internal/service/task/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore 메모리 기반의 테스트용 작업 결과 저장소입니다.
type memoryStore struct {
	saved map[string]any
}

func newMemoryStore() *memoryStore {
	return &memoryStore{saved: make(map[string]any)}
}

func (m *memoryStore) Save(taskID contract.TaskID, commandID contract.TaskCommandID, v any) error {
	m.saved[string(taskID)+"/"+string(commandID)] = v
	return nil
}

func (m *memoryStore) Load(taskID contract.TaskID, commandID contract.TaskCommandID, v any) error {
	return contract.ErrTaskResultNotFound
}

// detailHTML 상품 상세 페이지 HTML을 생성하는 테스트 헬퍼입니다.
func detailHTML(name string, infoLines ...string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><h1 itemprop="name">` + name + `</h1><div id="product-info">`)
	for _, line := range infoLines {
		sb.WriteString("<p>" + line + "</p>")
	}
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}

// listingHTML 상품 목록 페이지 HTML을 생성하는 테스트 헬퍼입니다.
func listingHTML(hrefs ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, href := range hrefs {
		if href == "" {
			// 앵커가 없는 상품 요소
			sb.WriteString(`<div class="product"><span>no link</span></div>`)
		} else {
			fmt.Fprintf(&sb, `<div class="product"><a href="%s">product</a></div>`, href)
		}
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

// newTestServer 목록/상세 페이지를 제공하는 테스트 서버를 생성합니다.
func newTestServer(t *testing.T, listing string, details map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products" {
			_, _ = w.Write([]byte(listing))
			return
		}
		if detail, exists := details[r.URL.Path]; exists {
			_, _ = w.Write([]byte(detail))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	return server
}

// newTestTask 지정된 서버를 감시하는 테스트용 Task를 생성합니다.
func newTestTask(t *testing.T, serverURL string, brands, keywords []string) *task {
	t.Helper()

	tk, err := NewTask(provider.NewTaskParams{
		NotifierID: "email-main",
		Storage:    newMemoryStore(),
		Scraper:    scraper.New(fetcher.NewHTTPFetcher()),
		Settings: map[string]any{
			"products_url":        serverURL + "/products",
			"brands":              brands,
			"ingredient_keywords": keywords,
		},
	})
	require.NoError(t, err)

	return tk.(*task)
}

func TestNewTask(t *testing.T) {
	t.Run("설정_검증_실패", func(t *testing.T) {
		tests := []struct {
			name     string
			settings map[string]any
		}{
			{"URL_누락", map[string]any{"brands": []string{"maruyasu"}, "ingredient_keywords": []string{"matcha"}}},
			{"잘못된_URL_형식", map[string]any{"products_url": "not-a-url", "brands": []string{"maruyasu"}, "ingredient_keywords": []string{"matcha"}}},
			{"브랜드_누락", map[string]any{"products_url": "https://www.sazentea.com/en/products", "ingredient_keywords": []string{"matcha"}}},
			{"원재료_키워드_누락", map[string]any{"products_url": "https://www.sazentea.com/en/products", "brands": []string{"maruyasu"}}},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewTask(provider.NewTaskParams{
					NotifierID: "email-main",
					Storage:    newMemoryStore(),
					Scraper:    scraper.New(fetcher.NewHTTPFetcher()),
					Settings:   tc.settings,
				})
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
			})
		}
	})
}

func TestExtractProducts(t *testing.T) {
	t.Run("상품_요소_없음_빈_결과", func(t *testing.T) {
		server := newTestServer(t, "<html><body><p>no products</p></body></html>", nil)
		tk := newTestTask(t, server.URL, []string{"maruyasu"}, []string{"matcha"})

		message, snapshot, err := tk.watchProducts(context.Background(), NewSnapshot(), true)
		require.NoError(t, err)
		assert.Empty(t, message)
		assert.Nil(t, snapshot)
	})

	t.Run("앵커_없는_상품_요소_제외", func(t *testing.T) {
		server := newTestServer(t,
			listingHTML("", "/p1"),
			map[string]string{
				"/p1": detailHTML("Maruyasu Matcha", "Item code: C-1", "Maker: Maruyasu", "Ingredients: Matcha"),
			})
		tk := newTestTask(t, server.URL, []string{"maruyasu"}, []string{"matcha"})

		doc, err := tk.Scraper().FetchDocument(context.Background(), server.URL+"/products", nil)
		require.NoError(t, err)

		products, err := tk.extractProducts(context.Background(), doc)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Maruyasu Matcha", products[0].Name)
		assert.Equal(t, server.URL+"/p1", products[0].URL)
	})

	t.Run("상세_페이지_실패_시_해당_상품만_건너뜀", func(t *testing.T) {
		server := newTestServer(t,
			listingHTML("/p1", "/missing", "/p2"),
			map[string]string{
				"/p1": detailHTML("Product One", "Item code: C-1", "Maker: Maruyasu", "Ingredients: Matcha"),
				"/p2": detailHTML("Product Two", "Item code: C-2", "Maker: Hekisuien", "Ingredients: Green tea powder"),
			})
		tk := newTestTask(t, server.URL, []string{"maruyasu"}, []string{"matcha"})

		doc, err := tk.Scraper().FetchDocument(context.Background(), server.URL+"/products", nil)
		require.NoError(t, err)

		products, err := tk.extractProducts(context.Background(), doc)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Product One", products[0].Name)
		assert.Equal(t, "Product Two", products[1].Name)
	})

	t.Run("누락된_정보_항목은_명시적_부재로_추출", func(t *testing.T) {
		server := newTestServer(t,
			listingHTML("/p1"),
			map[string]string{
				"/p1": detailHTML("Mystery Tea", "Item code: C-9", "형식이 잘못된 항목"),
			})
		tk := newTestTask(t, server.URL, []string{"maruyasu"}, []string{"matcha"})

		doc, err := tk.Scraper().FetchDocument(context.Background(), server.URL+"/products", nil)
		require.NoError(t, err)

		products, err := tk.extractProducts(context.Background(), doc)
		require.NoError(t, err)
		require.Len(t, products, 1)

		assert.True(t, products[0].Code.Present)
		assert.Equal(t, "C-9", products[0].Code.Value)
		assert.False(t, products[0].Maker.Present)
		assert.False(t, products[0].Ingredients.Present)
	})
}

func TestParseProductDetail(t *testing.T) {
	parse := func(t *testing.T, html string) (*Product, error) {
		t.Helper()
		s := scraper.New(fetcher.NewHTTPFetcher())
		doc, err := s.ParseReader(context.Background(), strings.NewReader(html), "https://www.sazentea.com/en/products/p1", "")
		require.NoError(t, err)
		return parseProductDetail(doc, "https://www.sazentea.com/en/products/p1")
	}

	t.Run("상품명_누락_시_구조_불일치", func(t *testing.T) {
		_, err := parse(t, `<html><body><div id="product-info"><p>Maker: X</p></div></body></html>`)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ParsingFailed))
	})

	t.Run("상품_정보_영역_누락_시_구조_불일치", func(t *testing.T) {
		_, err := parse(t, `<html><body><h1 itemprop="name">Tea</h1></body></html>`)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ParsingFailed))
	})

	t.Run("값에_콜론이_포함된_항목", func(t *testing.T) {
		product, err := parse(t, detailHTML("Tea", "Maker: Kyoto: Uji"))
		require.NoError(t, err)
		assert.Equal(t, "Kyoto: Uji", product.Maker.Value)
	})
}

func TestFilterMatchaProducts(t *testing.T) {
	server := newTestServer(t, listingHTML(), nil)
	tk := newTestTask(t, server.URL, []string{"maruyasu"}, []string{"matcha", "green tea powder"})

	present := func(v string) DetailField { return DetailField{Value: v, Present: true} }

	t.Run("대소문자_무시_매칭", func(t *testing.T) {
		products := []Product{
			{Name: "MARUYASU Koicha", Maker: present("Kyoto"), Ingredients: present("Stone-ground MATCHA")},
		}

		matched := tk.filterMatchaProducts(products)
		require.Len(t, matched, 1)
	})

	t.Run("브랜드X원재료_조합_매칭", func(t *testing.T) {
		products := []Product{
			{Name: "Maruyasu Matcha Supreme", Maker: present("Maruyasu"), Ingredients: present("Matcha")},
			{Name: "Maruyasu Koicha", Maker: present("Maruyasu"), Ingredients: present("Gyokuro leaves")},
		}

		matched := tk.filterMatchaProducts(products)
		require.Len(t, matched, 1)
		assert.Equal(t, "Maruyasu Matcha Supreme", matched[0].Name)
	})

	t.Run("제조사만_브랜드_매칭", func(t *testing.T) {
		products := []Product{
			{Name: "Premium Koicha", Maker: present("Maruyasu"), Ingredients: present("Green tea powder")},
		}

		matched := tk.filterMatchaProducts(products)
		require.Len(t, matched, 1)
	})

	t.Run("멱등성", func(t *testing.T) {
		products := []Product{
			{Name: "Maruyasu Matcha", Maker: present("Maruyasu"), Ingredients: present("Matcha")},
			{Name: "Sencha", Maker: present("Other"), Ingredients: present("Sencha leaves")},
		}

		once := tk.filterMatchaProducts(products)
		twice := tk.filterMatchaProducts(once)
		assert.Equal(t, once, twice)
	})

	t.Run("값이_없는_필드는_미매칭", func(t *testing.T) {
		products := []Product{
			{Name: "Maruyasu Matcha", Maker: present("Maruyasu"), Ingredients: DetailField{}},
		}

		matched := tk.filterMatchaProducts(products)
		assert.Empty(t, matched)
	})
}

func TestRenderMessage(t *testing.T) {
	present := func(v string) DetailField { return DetailField{Value: v, Present: true} }

	products := []Product{
		{URL: "https://www.sazentea.com/en/products/p1", Name: "Maruyasu Matcha", Code: present("C-1"), Maker: present("Maruyasu")},
		{URL: "https://www.sazentea.com/en/products/p2", Name: "Hekisuien Koicha", Code: present("C-2"), Maker: present("Hekisuien")},
	}

	t.Run("HTML_렌더링", func(t *testing.T) {
		message := renderMessage(products, true)

		assert.Contains(t, message, "<p>Check out these matcha products!</p>")
		assert.Contains(t, message, "<p>Have a great day!</p>")
		assert.Equal(t, 2, strings.Count(message, "<li><strong>"))

		// 입력 순서 유지
		first := strings.Index(message, "Maruyasu Matcha")
		second := strings.Index(message, "Hekisuien Koicha")
		require.NotEqual(t, -1, first)
		require.NotEqual(t, -1, second)
		assert.Less(t, first, second)

		assert.Contains(t, message, `<a href="https://www.sazentea.com/en/products/p1">`)
		assert.Contains(t, message, "(Item code 'C-1')")
	})

	t.Run("일반_텍스트_렌더링", func(t *testing.T) {
		message := renderMessage(products, false)

		assert.NotContains(t, message, "<ul>")
		assert.Contains(t, message, "Check out these matcha products!")
		assert.Contains(t, message, "- Maruyasu Matcha (Item code 'C-1'): Maruyasu")
	})

	t.Run("값이_없는_필드_플레이스홀더", func(t *testing.T) {
		message := renderMessage([]Product{{URL: "https://example.com/p", Name: "Tea"}}, true)

		assert.Contains(t, message, "(Item code '(unknown)')")
	})
}

func TestWatchProducts(t *testing.T) {
	// 시나리오: 브랜드 {maruyasu}, 원재료 {matcha, green tea powder} 기준으로
	// 두 상품 중 조건을 모두 만족하는 첫 번째 상품만 매칭됩니다.
	newScenarioServer := func(t *testing.T) *httptest.Server {
		return newTestServer(t,
			listingHTML("/p1", "/p2"),
			map[string]string{
				"/p1": detailHTML("Maruyasu Matcha Supreme", "Item code: C-1", "Maker: Maruyasu", "Ingredients: Matcha"),
				"/p2": detailHTML("Maruyasu Koicha", "Item code: C-2", "Maker: Maruyasu", "Ingredients: Gyokuro leaves"),
			})
	}

	t.Run("매칭_상품_존재_시_메시지_생성", func(t *testing.T) {
		server := newScenarioServer(t)
		tk := newTestTask(t, server.URL, []string{"maruyasu"}, []string{"matcha", "green tea powder"})

		message, newSnapshot, err := tk.watchProducts(context.Background(), NewSnapshot(), true)
		require.NoError(t, err)

		assert.Contains(t, message, "Maruyasu Matcha Supreme")
		assert.NotContains(t, message, "Maruyasu Koicha")

		snapshot, ok := newSnapshot.(*Snapshot)
		require.True(t, ok)
		assert.Len(t, snapshot.NotifiedProducts, 1)
	})

	t.Run("매칭_상품_없음_알림_미발생", func(t *testing.T) {
		server := newScenarioServer(t)
		tk := newTestTask(t, server.URL, []string{"hekisuien"}, []string{"matcha"})

		message, newSnapshot, err := tk.watchProducts(context.Background(), NewSnapshot(), true)
		require.NoError(t, err)
		assert.Empty(t, message)
		assert.Nil(t, newSnapshot)
	})

	t.Run("이미_알림된_상품_반복_알림_억제", func(t *testing.T) {
		server := newScenarioServer(t)
		tk := newTestTask(t, server.URL, []string{"maruyasu"}, []string{"matcha"})

		message, newSnapshot, err := tk.watchProducts(context.Background(), NewSnapshot(), true)
		require.NoError(t, err)
		require.NotEmpty(t, message)

		// 첫 실행에서 생성된 Snapshot으로 재실행하면 알림 대상이 없어야 합니다.
		message, repeatSnapshot, err := tk.watchProducts(context.Background(), newSnapshot.(*Snapshot), true)
		require.NoError(t, err)
		assert.Empty(t, message)
		assert.Nil(t, repeatSnapshot)
	})

	t.Run("목록_페이지_요청_실패_시_작업_실패", func(t *testing.T) {
		server := newScenarioServer(t)
		tk := newTestTask(t, server.URL, []string{"maruyasu"}, []string{"matcha"})
		server.Close() // 즉시 닫아 연결 실패 유도

		_, _, err := tk.watchProducts(context.Background(), NewSnapshot(), true)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ExecutionFailed))
	})
}

func TestSnapshot(t *testing.T) {
	t.Run("MarkNotified_원본_불변", func(t *testing.T) {
		original := NewSnapshot()
		updated := original.MarkNotified("a", "b")

		assert.Empty(t, original.NotifiedProducts)
		assert.Equal(t, []string{"a", "b"}, updated.NotifiedProducts)
		assert.True(t, updated.Contains("a"))
		assert.False(t, updated.Contains("c"))
	})

	t.Run("중복_키_미추가", func(t *testing.T) {
		snapshot := NewSnapshot().MarkNotified("a").MarkNotified("a", "b")
		assert.Equal(t, []string{"a", "b"}, snapshot.NotifiedProducts)
	})
}
