package errors

// Error code layout: AABBCCC
//   AA  - service (2 digits)
//   BB  - category (2 digits)
//   CCC - sequence within the category (3 digits)

// Service codes.
const (
	// ServiceCommon 通用错误。
	ServiceCommon = 10

	// ServiceDocQA 文档问答服务。
	ServiceDocQA = 21
)

// Error categories.
const (
	CategoryRequest    = 1  // 请求参数错误
	CategoryAuth       = 2  // 认证授权错误
	CategoryResource   = 3  // 资源不存在/冲突
	CategoryIngest     = 4  // 文档解析与索引
	CategoryRetrieval  = 5  // 向量检索
	CategoryGeneration = 6  // 模型生成
	CategoryExtraction = 7  // 结构化抽取
	CategoryCache      = 8  // 缓存
	CategoryInternal   = 9  // 内部错误
	CategoryConfig     = 12 // 配置错误
)

// MakeCode builds a numeric error code from service, category and sequence.
func MakeCode(service, category, sequence int) int {
	return service*100000 + category*1000 + sequence
}

// ServiceOf returns the service part of a code.
func ServiceOf(code int) int {
	return code / 100000
}

// CategoryOf returns the category part of a code.
func CategoryOf(code int) int {
	return (code / 1000) % 100
}
