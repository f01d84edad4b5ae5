package cluster

import (
	"fmt"
	"strings"

	"github.com/lueurxax/daily-news-digest/internal/core/domain"
	"github.com/lueurxax/daily-news-digest/internal/htmlutils"
)

// maxPromptTitleRunes caps a single title's share of the request payload.
const maxPromptTitleRunes = 200

// The response format the parser understands. The instructions pin output
// language, per-item and synopsis lengths, and forbid comment content; the
// category/bullet shape below is what ParseResponse reads back.
const promptInstructions = `あなたは日本語でニュースダイジェストを作成するアシスタントです。以下の記事一覧をテーマごとのカテゴリに分類し、要約してください。

指示:
1. 記事を3〜6個のカテゴリに分類し、各カテゴリに短い日本語のカテゴリ名を付けてください
2. 各カテゴリの冒頭に、そのカテゴリ全体の動向をまとめた3〜4文の概要段落を書いてください
3. 各記事について1〜2文の日本語要約を書いてください。英語のタイトルは自然な日本語に翻訳してください
4. 記事本文やコメント欄の内容には言及せず、タイトルとスコアから読み取れる範囲で要約してください
5. 出力は必ず次の形式に従ってください:

## カテゴリ名
カテゴリ概要（3〜4文）。
- [記事の要約文](記事のURL)
- [記事の要約文](記事のURL)

URLは記事一覧のものをそのまま使ってください。形式以外のテキストは出力しないでください。`

// BuildPrompt assembles the summarization request deterministically from
// the selected items in ranked order: identical input yields a
// byte-identical prompt.
func BuildPrompt(selected []domain.Item) string {
	var b strings.Builder

	b.WriteString(promptInstructions)
	b.WriteString("\n\n記事一覧（")
	fmt.Fprintf(&b, "%d件", len(selected))
	b.WriteString("）:\n")

	for i, item := range selected {
		fmt.Fprintf(&b, "%d. [%s] %s (%d %s) - %s\n",
			i+1,
			item.Source.DisplayName(),
			htmlutils.TruncateRunes(item.Title, maxPromptTitleRunes),
			item.RawScore,
			item.Source.ScoreLabel(),
			item.URL,
		)
	}

	return b.String()
}
