package biz

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/loaddesk/loaddesk/internal/docqa/store"
	"github.com/loaddesk/loaddesk/internal/pkg/textutil"
)

// UntitledSection 未匹配到任何标题的文本归入此节。
const UntitledSection = "untitled"

// headerPattern 匹配物流单据中的已知章节标题（大小写不敏感）。
// 长短语在前，避免被其子串抢先匹配。
var headerPattern = regexp.MustCompile(`(?i)\b(shipper\s*&\s*carrier\s*instructions|standing\s*instructions|special\s*instructions|carrier\s*details|driver\s*details|rate\s*breakdown|reference\s*id|commodity|description|pickup|stops|drop)\b`)

// canonicalLabels 把折叠后的标题映射到规范写法。
var canonicalLabels = map[string]string{
	"carrier details":                "Carrier Details",
	"driver details":                 "Driver Details",
	"rate breakdown":                 "Rate Breakdown",
	"reference id":                   "Reference ID",
	"pickup":                         "Pickup",
	"drop":                           "Drop",
	"stops":                          "Stops",
	"standing instructions":          "Standing Instructions",
	"special instructions":           "Special Instructions",
	"shipper & carrier instructions": "Shipper & Carrier Instructions",
	"commodity":                      "Commodity",
	"description":                    "Description",
}

// sectionGroups 将标题归并为逻辑章节，供统计与来源标注使用。
var sectionGroups = map[string]string{
	"Carrier Details":                "carrier_info",
	"Driver Details":                 "carrier_info",
	"Reference ID":                   "customer_info",
	"Pickup":                         "location_info",
	"Drop":                           "location_info",
	"Stops":                          "location_info",
	"Rate Breakdown":                 "rate_info",
	"Commodity":                      "commodity_info",
	"Description":                    "commodity_info",
	"Standing Instructions":          "instructions",
	"Special Instructions":           "instructions",
	"Shipper & Carrier Instructions": "instructions",
}

// SectionGroup 返回标题所属的逻辑章节；未知标题返回 untitled。
func SectionGroup(label string) string {
	if group, ok := sectionGroups[label]; ok {
		return group
	}
	return UntitledSection
}

var (
	sectionMarker = regexp.MustCompile(`\n## ([^\n]+)\n`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Section 是一个带标签的文本片段。
type Section struct {
	Label string
	Text  string
}

// canonicalLabel 折叠空白并映射到规范标题写法。
func canonicalLabel(header string) string {
	key := strings.ToLower(strings.TrimSpace(whitespaceRun.ReplaceAllString(header, " ")))
	if label, ok := canonicalLabels[key]; ok {
		return label
	}
	return UntitledSection
}

// DetectSections 扫描文本中的标题并切分为有序章节。
// 整个文本被章节完整覆盖：无标题时返回单个 untitled 节。
func DetectSections(text string) []Section {
	marked := headerPattern.ReplaceAllString(text, "\n## $1\n")

	matches := sectionMarker.FindAllStringSubmatchIndex(marked, -1)
	if len(matches) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []Section{{Label: UntitledSection, Text: trimmed}}
	}

	var sections []Section
	if head := strings.TrimSpace(marked[:matches[0][0]]); head != "" {
		sections = append(sections, Section{Label: UntitledSection, Text: head})
	}

	for i, m := range matches {
		header := marked[m[2]:m[3]]
		end := len(marked)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		// 标题本身归入章节文本，保证章节覆盖全文
		body := strings.TrimSpace(header + "\n" + strings.TrimSpace(marked[m[1]:end]))
		sections = append(sections, Section{Label: canonicalLabel(header), Text: body})
	}

	return sections
}

// semanticSeparators 递归切分的分隔符阶梯，从结构边界到单字符逐级回退。
var semanticSeparators = []string{"\n### ", "\n## ", "\n\n", "\n", ". ", " ", ""}

// minChunkLen 过短的块没有检索价值，直接丢弃。
const minChunkLen = 20

// Ingester 将文档文本切分为带元数据的块。
type Ingester struct {
	splitter textsplitter.RecursiveCharacter
}

// NewIngester 创建切分器。
func NewIngester(chunkSize, chunkOverlap int) *Ingester {
	return &Ingester{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(semanticSeparators),
		),
	}
}

// BuildChunks 对文档执行章节检测和递归切分，返回尚未向量化的块。
func (ing *Ingester) BuildChunks(docID, docName, text string) ([]*store.Chunk, error) {
	sections := DetectSections(text)

	var chunks []*store.Chunk
	seq := 0
	for _, section := range sections {
		parts, err := ing.splitter.SplitText(section.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split section %q: %w", section.Label, err)
		}

		for _, part := range parts {
			content := textutil.CleanText(part)
			if len(content) < minChunkLen {
				continue
			}

			chunks = append(chunks, &store.Chunk{
				ID:           ChunkID(docID, seq),
				DocumentID:   docID,
				DocumentName: docName,
				Section:      section.Label,
				ChunkIndex:   seq,
				ChunkType:    store.ChunkTypeText,
				Content:      content,
			})
			seq++
		}
	}

	return chunks, nil
}

// ChunkID 由文档 ID 和序号派生，保证索引内唯一。
func ChunkID(docID string, index int) string {
	return textutil.HashString(fmt.Sprintf("%s:%d", docID, index))
}
