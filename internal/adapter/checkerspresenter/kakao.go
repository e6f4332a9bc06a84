package checkerspresenter

import "strings"

const (
	kakaoSeeMorePadding = 500
	kakaoZeroWidthSpace = "\u200b"
)

// withSeeMore puts header on the first line and hides body behind KakaoTalk's '전체보기' fold
// by padding with zero-width spaces. A body that already starts with header is not repeated.
func withSeeMore(header, body string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	header = strings.TrimSpace(header)
	body = stripLeadingHeader(body, header)

	var b strings.Builder
	b.Grow(len(header) + len(body) + kakaoSeeMorePadding*len(kakaoZeroWidthSpace) + 1)
	b.WriteString(header)
	b.WriteString(strings.Repeat(kakaoZeroWidthSpace, kakaoSeeMorePadding))
	if !strings.HasPrefix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(body)
	return b.String()
}

func stripLeadingHeader(text, header string) string {
	if header == "" {
		return text
	}
	for _, candidate := range []string{header + "\r\n", header + "\n", header} {
		if strings.HasPrefix(text, candidate) {
			return strings.TrimLeft(strings.TrimPrefix(text, candidate), "\r\n")
		}
	}
	return text
}
