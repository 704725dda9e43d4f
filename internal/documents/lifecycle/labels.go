package lifecycle

import "github.com/domeo/domeo-backend/pkg/enums"

var quoteLabels = map[enums.QuoteStatus]string{
	enums.QuoteStatusDraft:    "Черновик",
	enums.QuoteStatusSent:     "Отправлено",
	enums.QuoteStatusAccepted: "Согласовано",
	enums.QuoteStatusRejected: "Отказ",
}

var invoiceLabels = map[enums.InvoiceStatus]string{
	enums.InvoiceStatusDraft:                "Черновик",
	enums.InvoiceStatusSent:                 "Отправлен",
	enums.InvoiceStatusPaid:                 "Оплачен/Заказ",
	enums.InvoiceStatusOrdered:              "Заказ размещен",
	enums.InvoiceStatusInProduction:         "В производстве",
	enums.InvoiceStatusReceivedFromSupplier: "Получен от поставщика",
	enums.InvoiceStatusCompleted:            "Исполнен",
	enums.InvoiceStatusCancelled:            "Отменен",
}

var orderLabels = map[enums.OrderStatus]string{
	enums.OrderStatusNewPlanned:              "Черновик",
	enums.OrderStatusUnderReview:             "На проверке",
	enums.OrderStatusAwaitingMeasurement:     "Ждет замер",
	enums.OrderStatusAwaitingInvoice:         "Ожидает опт. счет",
	enums.OrderStatusReadyForProduction:      "Готов к запуску в производство",
	enums.OrderStatusCompleted:               "Исполнен",
	enums.OrderStatusReturnedToComplectation: "Возвращен в комплектацию",
	enums.OrderStatusCancelled:               "Отменен",
}

var supplierOrderLabels = map[enums.SupplierOrderStatus]string{
	enums.SupplierOrderStatusPending:      "Ожидает размещения",
	enums.SupplierOrderStatusOrdered:      "Заказ размещен",
	enums.SupplierOrderStatusInProduction: "В производстве",
	enums.SupplierOrderStatusReady:        "Готов",
	enums.SupplierOrderStatusCompleted:    "Исполнен",
	enums.SupplierOrderStatusCancelled:    "Отменен",
}

func QuoteLabel(s enums.QuoteStatus) string                 { return labelOr(quoteLabels, s) }
func InvoiceLabel(s enums.InvoiceStatus) string             { return labelOr(invoiceLabels, s) }
func OrderLabel(s enums.OrderStatus) string                 { return labelOr(orderLabels, s) }
func SupplierOrderLabel(s enums.SupplierOrderStatus) string { return labelOr(supplierOrderLabels, s) }

// Label returns the display label of a status of any kind. Unknown values
// are returned unchanged.
func Label(kind enums.DocumentKind, status string) string {
	switch kind {
	case enums.DocumentKindQuote:
		return QuoteLabel(enums.QuoteStatus(status))
	case enums.DocumentKindInvoice:
		return InvoiceLabel(enums.InvoiceStatus(status))
	case enums.DocumentKindOrder:
		return OrderLabel(enums.OrderStatus(status))
	case enums.DocumentKindSupplierOrder:
		return SupplierOrderLabel(enums.SupplierOrderStatus(status))
	default:
		return status
	}
}

// OrderDisplay is the status an operator sees for an order.
type OrderDisplay struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	// Source is "invoice" when the status mirrors the linked invoice.
	Source string `json:"source"`
}

// DisplayOrderStatus derives the visible order status: the mirrored invoice
// status when an invoice is linked, otherwise the order's own status.
func DisplayOrderStatus(own enums.OrderStatus, hasInvoice bool, invoiceStatus *enums.InvoiceStatus) OrderDisplay {
	if hasInvoice && invoiceStatus != nil && *invoiceStatus != "" {
		return OrderDisplay{Status: string(*invoiceStatus), Label: InvoiceLabel(*invoiceStatus), Source: "invoice"}
	}
	return OrderDisplay{Status: string(own), Label: OrderLabel(own), Source: "order"}
}

func labelOr[S ~string](labels map[S]string, s S) string {
	if label, ok := labels[s]; ok {
		return label
	}
	return string(s)
}
