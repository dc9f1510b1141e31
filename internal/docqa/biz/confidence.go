package biz

import "strings"

// NotFoundAnswer 是模型在上下文不包含答案时必须返回的固定应答。
const NotFoundAnswer = "I cannot find the answer in the provided documents."

// ConfidenceSignals 是置信度评分的输入。
type ConfidenceSignals struct {
	// SupportingChunks 超过相似度阈值的检索块数量。
	SupportingChunks int

	// Answer 生成的应答文本。
	Answer string
}

// 评分常量。
const (
	confidenceBase      = 0.85
	notFoundScore       = 0.05
	shortAnswerLen      = 30
	shortAnswerPenalty  = 0.30
	fewChunksPenalty    = 0.15
	hedgingPenalty      = 0.30
	minSupportingChunks = 2
)

// hedgingPhrases 出现则说明答案可能来自模型常识而非文档。
var hedgingPhrases = []string{
	"generally", "usually", "in most cases", "best practice", "typically", "commonly",
}

// ScoreConfidence 纯函数：从信号计算 [0,1] 区间的启发式置信度。
func ScoreConfidence(sig ConfidenceSignals) float64 {
	answer := strings.ToLower(sig.Answer)

	if strings.Contains(answer, "cannot find the answer") {
		return notFoundScore
	}

	score := confidenceBase

	if len(sig.Answer) < shortAnswerLen {
		score -= shortAnswerPenalty
	}
	if sig.SupportingChunks < minSupportingChunks {
		score -= fewChunksPenalty
	}
	for _, phrase := range hedgingPhrases {
		if strings.Contains(answer, phrase) {
			score -= hedgingPenalty
			break
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
