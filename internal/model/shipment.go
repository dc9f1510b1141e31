// Package model holds the shared data types of the document QA service.
package model

// CarrierInfo 承运人信息。
type CarrierInfo struct {
	CarrierName string  `json:"carrier_name"`
	MCNumber    *string `json:"mc_number"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
}

// DriverInfo 司机信息。
type DriverInfo struct {
	DriverName    string  `json:"driver_name"`
	CellNumber    *string `json:"cell_number"`
	TruckNumber   *string `json:"truck_number"`
	TrailerNumber *string `json:"trailer_number"`
}

// Location 提货/卸货地点。
type Location struct {
	Name            *string `json:"name"`
	Address         *string `json:"address"`
	City            *string `json:"city"`
	State           *string `json:"state"`
	Zip             *string `json:"zip"`
	Country         *string `json:"country"`
	AppointmentTime *string `json:"appointment_time"`
	PONumber        *string `json:"po_number"`
}

// Commodity 货物条目。
type Commodity struct {
	CommodityName *string `json:"commodity_name"`
	Weight        *string `json:"weight"`
	Quantity      *string `json:"quantity"`
	Description   *string `json:"description"`
}

// RateInfo 运费信息。
type RateInfo struct {
	TotalRate     *float64           `json:"total_rate"`
	Currency      *string            `json:"currency"`
	RateBreakdown map[string]float64 `json:"rate_breakdown"`
}

// ShipmentData 是结构化抽取的目标 schema。缺失字段为 null。
type ShipmentData struct {
	ReferenceID *string `json:"reference_id"`
	LoadID      *string `json:"load_id"`
	PONumber    *string `json:"po_number"`

	Shipper   *string `json:"shipper"`
	Consignee *string `json:"consignee"`

	Carrier *CarrierInfo `json:"carrier"`
	Driver  *DriverInfo  `json:"driver"`

	Pickup *Location `json:"pickup"`
	Drop   *Location `json:"drop"`

	ShippingDate *string `json:"shipping_date"`
	DeliveryDate *string `json:"delivery_date"`
	CreatedDate  *string `json:"created_date"`
	BookingDate  *string `json:"booking_date"`

	EquipmentType *string `json:"equipment_type"`
	EquipmentSize *string `json:"equipment_size"`
	LoadType      *string `json:"load_type"`

	Commodities []Commodity `json:"commodities"`

	Rate *RateInfo `json:"rate_info"`

	SpecialInstructions *string `json:"special_instructions"`
	ShipperInstructions *string `json:"shipper_instructions"`
	CarrierInstructions *string `json:"carrier_instructions"`

	DispatcherName  *string `json:"dispatcher_name"`
	DispatcherPhone *string `json:"dispatcher_phone"`
	DispatcherEmail *string `json:"dispatcher_email"`
}

// Completeness returns the fraction of top-level fields that were extracted.
func (s *ShipmentData) Completeness() float64 {
	total := 0
	filled := 0

	count := func(present bool) {
		total++
		if present {
			filled++
		}
	}

	count(s.ReferenceID != nil)
	count(s.LoadID != nil)
	count(s.PONumber != nil)
	count(s.Shipper != nil)
	count(s.Consignee != nil)
	count(s.Carrier != nil)
	count(s.Driver != nil)
	count(s.Pickup != nil)
	count(s.Drop != nil)
	count(s.ShippingDate != nil)
	count(s.DeliveryDate != nil)
	count(s.CreatedDate != nil)
	count(s.BookingDate != nil)
	count(s.EquipmentType != nil)
	count(s.EquipmentSize != nil)
	count(s.LoadType != nil)
	count(len(s.Commodities) > 0)
	count(s.Rate != nil)
	count(s.SpecialInstructions != nil)
	count(s.ShipperInstructions != nil)
	count(s.CarrierInstructions != nil)
	count(s.DispatcherName != nil)

	return float64(filled) / float64(total)
}

// ExtractionRecord pairs extracted shipment data with its source document.
type ExtractionRecord struct {
	DocumentID   string        `json:"document_id"`
	DocumentName string        `json:"document_name"`
	Data         *ShipmentData `json:"data"`
	Completeness float64       `json:"completeness"`
}
