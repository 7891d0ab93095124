package sazentea

import (
	"fmt"
	"html"
	"strings"
)

const (
	msgIntro   = "Check out these matcha products!"
	msgClosing = "Have a great day!"
)

// renderMessage 필터링된 상품 목록을 알림 메시지로 렌더링합니다.
//
// 알림 채널의 HTML 지원 여부에 따라 HTML 또는 일반 텍스트 형식으로 생성합니다.
// 상품은 입력 순서대로 나열되며, 각 항목에 상품명/상품코드/제조사와 상세 페이지 링크가 포함됩니다.
func renderMessage(products []Product, supportsHTML bool) string {
	if supportsHTML {
		return renderHTML(products)
	}
	return renderPlainText(products)
}

// renderHTML 상품 목록을 HTML 형식의 알림 메시지로 렌더링합니다.
func renderHTML(products []Product) string {
	var sb strings.Builder

	sb.WriteString("<p>" + msgIntro + "</p>\n\n")

	sb.WriteString("<ul>\n")
	for i := range products {
		p := &products[i]

		fmt.Fprintf(&sb, "<li><strong>%s (Item code '%s')</strong>: %s\n",
			html.EscapeString(p.Name), html.EscapeString(p.Code.String()), html.EscapeString(p.Maker.String()))
		fmt.Fprintf(&sb, "<ul><li><a href=\"%s\">%s</a></li></ul>\n",
			p.URL, html.EscapeString(p.URL))
	}
	sb.WriteString("</ul>\n\n")

	sb.WriteString("<p>" + msgClosing + "</p>")

	return sb.String()
}

// renderPlainText 상품 목록을 일반 텍스트 형식의 알림 메시지로 렌더링합니다.
func renderPlainText(products []Product) string {
	var sb strings.Builder

	sb.WriteString(msgIntro + "\n\n")

	for i := range products {
		p := &products[i]

		fmt.Fprintf(&sb, "- %s (Item code '%s'): %s\n", p.Name, p.Code.String(), p.Maker.String())
		fmt.Fprintf(&sb, "  %s\n", p.URL)
	}

	sb.WriteString("\n" + msgClosing)

	return sb.String()
}
