package biz

import (
	"context"
	stdjson "encoding/json"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/loaddesk/loaddesk/internal/docqa/metrics"
	"github.com/loaddesk/loaddesk/internal/docqa/store"
	"github.com/loaddesk/loaddesk/internal/model"
	"github.com/loaddesk/loaddesk/pkg/llm"
	"github.com/loaddesk/loaddesk/pkg/utils/errors"
	"github.com/loaddesk/loaddesk/pkg/utils/json"
)

// extractionPromptTemplate 要求模型输出 schema 对应的 JSON 对象。
const extractionPromptTemplate = `You are an expert data extraction assistant for logistics documents.
Extract ALL available information from the text provided below. Be thorough and extract:
- Reference IDs, Load IDs, PO numbers
- Shipper, Consignee, Carrier details (name, MC number, phone, email)
- Driver information (name, phone, truck/trailer numbers)
- Pickup and Drop locations (name, address, city, state, zip, appointment times)
- Dates (shipping, delivery, created, booking)
- Equipment details (type, size, load type)
- Commodities (name, weight, quantity, description)
- Rate information (total, currency, breakdown)
- Instructions (special, shipper, carrier)
- Dispatcher information (name, phone, email)

Respond with ONLY a JSON object using these keys:
reference_id, load_id, po_number, shipper, consignee,
carrier {carrier_name, mc_number, phone, email},
driver {driver_name, cell_number, truck_number, trailer_number},
pickup and drop {name, address, city, state, zip, country, appointment_time, po_number},
shipping_date, delivery_date, created_date, booking_date,
equipment_type, equipment_size, load_type,
commodities [{commodity_name, weight, quantity, description}],
rate_info {total_rate, currency, rate_breakdown},
special_instructions, shipper_instructions, carrier_instructions,
dispatcher_name, dispatcher_phone, dispatcher_email

If a field is not present in the document, return null for that field.
Extract as much detail as possible from the document.

Text:
{{text}}`

// Extractor 调用模型做结构化抽取，并把结果序列化为可检索的块。
type Extractor struct {
	chat llm.ChatProvider
}

// NewExtractor 创建抽取器。
func NewExtractor(chat llm.ChatProvider) *Extractor {
	return &Extractor{chat: chat}
}

// Extract 对文档文本执行结构化抽取。
// 字段级失败置 null 继续；整体不可解析时返回空记录和 ErrExtractionTotalFailure。
func (e *Extractor) Extract(ctx context.Context, docID, docName, text string) (*model.ExtractionRecord, error) {
	prompt := strings.Replace(extractionPromptTemplate, "{{text}}", text, 1)

	resp, err := e.chat.Generate(ctx, prompt)
	if err != nil {
		metrics.Get().RecordLLMCall(0, err)
		return nil, errors.ErrGenerationFailure.WithCause(err)
	}
	metrics.Get().RecordLLMCall(resp.Usage.TotalTokens, nil)

	data, fieldErrs, err := parseShipmentData(resp.Content)
	if err != nil {
		// 空记录兜底，调用方决定是否把错误暴露给用户
		empty := &model.ShipmentData{}
		return &model.ExtractionRecord{
			DocumentID:   docID,
			DocumentName: docName,
			Data:         empty,
			Completeness: 0,
		}, errors.ErrExtractionTotalFailure.WithCause(err)
	}

	if fieldErrs > 0 {
		logger.Warnw("extraction degraded, invalid fields set to null",
			"document_id", docID, "invalid_fields", fieldErrs)
	}

	return &model.ExtractionRecord{
		DocumentID:   docID,
		DocumentName: docName,
		Data:         data,
		Completeness: data.Completeness(),
	}, nil
}

// parseShipmentData 宽容解析模型输出：提取首个 JSON 对象，逐字段解码，
// 单字段类型不符时置 null。返回无法定位或无法解析对象时报错。
func parseShipmentData(content string) (*model.ShipmentData, int, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, 0, fmt.Errorf("response contains no JSON object")
	}

	var raw map[string]stdjson.RawMessage
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, 0, fmt.Errorf("response is not a valid JSON object: %w", err)
	}

	data := &model.ShipmentData{}
	fieldErrs := 0

	decode := func(key string, dst any) {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			return
		}
		if err := json.Unmarshal(v, dst); err != nil {
			fieldErrs++
		}
	}

	decode("reference_id", &data.ReferenceID)
	decode("load_id", &data.LoadID)
	decode("po_number", &data.PONumber)
	decode("shipper", &data.Shipper)
	decode("consignee", &data.Consignee)
	decode("carrier", &data.Carrier)
	decode("driver", &data.Driver)
	decode("pickup", &data.Pickup)
	decode("drop", &data.Drop)
	decode("shipping_date", &data.ShippingDate)
	decode("delivery_date", &data.DeliveryDate)
	decode("created_date", &data.CreatedDate)
	decode("booking_date", &data.BookingDate)
	decode("equipment_type", &data.EquipmentType)
	decode("equipment_size", &data.EquipmentSize)
	decode("load_type", &data.LoadType)
	decode("commodities", &data.Commodities)
	decode("rate_info", &data.Rate)
	decode("special_instructions", &data.SpecialInstructions)
	decode("shipper_instructions", &data.ShipperInstructions)
	decode("carrier_instructions", &data.CarrierInstructions)
	decode("dispatcher_name", &data.DispatcherName)
	decode("dispatcher_phone", &data.DispatcherPhone)
	decode("dispatcher_email", &data.DispatcherEmail)

	return data, fieldErrs, nil
}

// FormatRecordText 把抽取记录渲染成可检索的纯文本。
func FormatRecordText(record *model.ExtractionRecord) string {
	data := record.Data
	lines := []string{"=== EXTRACTED STRUCTURED DATA ==="}

	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	addStr := func(label string, v *string) {
		if v != nil && *v != "" {
			add("%s: %s", label, *v)
		}
	}

	addStr("Reference ID", data.ReferenceID)
	addStr("Load ID", data.LoadID)
	addStr("PO Number", data.PONumber)
	addStr("Shipper", data.Shipper)
	addStr("Consignee", data.Consignee)

	if c := data.Carrier; c != nil {
		add("Carrier Name: %s", c.CarrierName)
		addStr("MC Number", c.MCNumber)
		addStr("Carrier Phone", c.Phone)
	}
	if d := data.Driver; d != nil {
		add("Driver Name: %s", d.DriverName)
		addStr("Driver Phone", d.CellNumber)
		addStr("Truck Number", d.TruckNumber)
	}
	if p := data.Pickup; p != nil {
		addStr("Pickup Location", firstNonNil(p.Name, p.Address))
		addStr("Pickup City", p.City)
		addStr("Pickup Appointment", p.AppointmentTime)
	}
	if d := data.Drop; d != nil {
		addStr("Drop Location", firstNonNil(d.Name, d.Address))
		addStr("Drop City", d.City)
	}

	addStr("Shipping Date", data.ShippingDate)
	addStr("Delivery Date", data.DeliveryDate)
	addStr("Equipment Type", data.EquipmentType)
	addStr("Equipment Size", data.EquipmentSize)
	addStr("Load Type", data.LoadType)

	if len(data.Commodities) > 0 {
		lines = append(lines, "Commodities:")
		for i, c := range data.Commodities {
			name := "Unknown"
			if c.CommodityName != nil {
				name = *c.CommodityName
			}
			add("  %d. %s", i+1, name)
			addStr("     Weight", c.Weight)
			addStr("     Quantity", c.Quantity)
		}
	}

	if r := data.Rate; r != nil && r.TotalRate != nil {
		currency := "USD"
		if r.Currency != nil {
			currency = *r.Currency
		}
		add("Total Rate: $%.2f %s", *r.TotalRate, currency)
		if len(r.RateBreakdown) > 0 {
			breakdown, err := json.Marshal(r.RateBreakdown)
			if err == nil {
				add("Rate Breakdown: %s", breakdown)
			}
		}
	}

	addStr("Special Instructions", data.SpecialInstructions)
	addStr("Shipper Instructions", data.ShipperInstructions)
	addStr("Carrier Instructions", data.CarrierInstructions)
	addStr("Dispatcher", data.DispatcherName)
	addStr("Dispatcher Phone", data.DispatcherPhone)

	return strings.Join(lines, "\n")
}

// StructuredChunk 把抽取记录封装成可重新索引的块。
func StructuredChunk(record *model.ExtractionRecord) *store.Chunk {
	return &store.Chunk{
		ID:           ChunkID(record.DocumentID, store.StructuredChunkIndex),
		DocumentID:   record.DocumentID,
		DocumentName: record.DocumentName,
		Section:      "Extracted Data",
		ChunkIndex:   store.StructuredChunkIndex,
		ChunkType:    store.ChunkTypeStructured,
		Content:      FormatRecordText(record),
	}
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil && *v != "" {
			return v
		}
	}
	return nil
}
