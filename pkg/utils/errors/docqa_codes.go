package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// 文档问答服务错误码定义。
var (
	// ErrInvalidRequest 请求参数无效。
	ErrInvalidRequest = Register(New(
		MakeCode(ServiceDocQA, CategoryRequest, 1),
		http.StatusBadRequest, codes.InvalidArgument,
		"invalid request parameters", "请求参数无效"))

	// ErrDocumentNotFound 文档不存在。
	ErrDocumentNotFound = Register(New(
		MakeCode(ServiceDocQA, CategoryResource, 1),
		http.StatusNotFound, codes.NotFound,
		"document not found", "文档不存在"))

	// ErrUnsupportedFileType 不支持的文件类型。
	ErrUnsupportedFileType = Register(New(
		MakeCode(ServiceDocQA, CategoryIngest, 1),
		http.StatusUnsupportedMediaType, codes.InvalidArgument,
		"unsupported file type, expected pdf, docx or txt", "不支持的文件类型，仅支持 pdf、docx、txt"))

	// ErrParseFailure 文档解析失败。
	ErrParseFailure = Register(New(
		MakeCode(ServiceDocQA, CategoryIngest, 2),
		http.StatusUnprocessableEntity, codes.Internal,
		"failed to decode document to text", "文档解析失败"))

	// ErrEmptyDocument 文档内容为空。
	ErrEmptyDocument = Register(New(
		MakeCode(ServiceDocQA, CategoryIngest, 3),
		http.StatusUnprocessableEntity, codes.InvalidArgument,
		"document contains no extractable text", "文档不包含可提取的文本"))

	// ErrEmbeddingFailure 向量化失败。
	ErrEmbeddingFailure = Register(New(
		MakeCode(ServiceDocQA, CategoryRetrieval, 1),
		http.StatusBadGateway, codes.Unavailable,
		"embedding provider call failed", "向量化调用失败"))

	// ErrIndexFailure 向量索引写入失败。
	ErrIndexFailure = Register(New(
		MakeCode(ServiceDocQA, CategoryRetrieval, 2),
		http.StatusInternalServerError, codes.Internal,
		"failed to write chunks to the vector index", "向量索引写入失败"))

	// ErrSearchFailure 向量检索失败。
	ErrSearchFailure = Register(New(
		MakeCode(ServiceDocQA, CategoryRetrieval, 3),
		http.StatusInternalServerError, codes.Internal,
		"vector search failed", "向量检索失败"))

	// ErrGenerationFailure 模型生成失败。
	ErrGenerationFailure = Register(New(
		MakeCode(ServiceDocQA, CategoryGeneration, 1),
		http.StatusBadGateway, codes.Unavailable,
		"language model call failed", "模型生成调用失败"))

	// ErrGuardrailRejection 问题被安全护栏拒绝。
	// 注意：对外不是失败响应，handler 将其转换为低置信度的正常应答。
	ErrGuardrailRejection = Register(New(
		MakeCode(ServiceDocQA, CategoryGeneration, 2),
		http.StatusOK, codes.OK,
		"query rejected by guardrail", "问题被安全护栏拒绝"))

	// ErrExtractionFieldInvalid 抽取字段校验失败（非致命，按字段置空）。
	ErrExtractionFieldInvalid = Register(New(
		MakeCode(ServiceDocQA, CategoryExtraction, 1),
		http.StatusOK, codes.OK,
		"extraction field failed validation", "抽取字段校验失败"))

	// ErrExtractionTotalFailure 抽取结果整体不可解析。
	ErrExtractionTotalFailure = Register(New(
		MakeCode(ServiceDocQA, CategoryExtraction, 2),
		http.StatusUnprocessableEntity, codes.Internal,
		"extraction response could not be parsed", "抽取结果整体不可解析"))

	// ErrCacheFailure 缓存访问失败。
	ErrCacheFailure = Register(New(
		MakeCode(ServiceDocQA, CategoryCache, 1),
		http.StatusInternalServerError, codes.Internal,
		"query cache access failed", "缓存访问失败"))

	// ErrInternal 内部错误。
	ErrInternal = Register(New(
		MakeCode(ServiceDocQA, CategoryInternal, 1),
		http.StatusInternalServerError, codes.Internal,
		"internal server error", "内部错误"))
)
