package biz

import (
	"strings"

	"github.com/loaddesk/loaddesk/pkg/utils/errors"
)

// RefusalMessage 护栏拒绝时返回的固定应答。
const RefusalMessage = "I can only answer questions about the uploaded logistics documents."

// defaultDenylist 命中即拒绝的词表。
var defaultDenylist = []string{"bomb", "kill", "suicide", "hack", "exploit", "weapon"}

// Guardrail 在检索与生成之前筛查问题。
type Guardrail struct {
	denylist []string
}

// NewGuardrail 创建护栏，terms 为空时使用默认词表。
func NewGuardrail(terms []string) *Guardrail {
	if len(terms) == 0 {
		terms = defaultDenylist
	}
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	return &Guardrail{denylist: lowered}
}

// Check 返回 nil 表示放行；命中词表时返回 ErrGuardrailRejection。
func (g *Guardrail) Check(question string) error {
	lowered := strings.ToLower(question)
	for _, term := range g.denylist {
		if strings.Contains(lowered, term) {
			return errors.ErrGuardrailRejection.WithMessagef("question contains blocked term %q", term)
		}
	}
	return nil
}
