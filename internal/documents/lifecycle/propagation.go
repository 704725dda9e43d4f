package lifecycle

import "github.com/domeo/domeo-backend/pkg/enums"

var supplierToInvoice = map[enums.SupplierOrderStatus]enums.InvoiceStatus{
	enums.SupplierOrderStatusOrdered:      enums.InvoiceStatusOrdered,
	enums.SupplierOrderStatusInProduction: enums.InvoiceStatusInProduction,
	enums.SupplierOrderStatusReady:        enums.InvoiceStatusReceivedFromSupplier,
	enums.SupplierOrderStatusCompleted:    enums.InvoiceStatusCompleted,
}

// PropagateSupplier maps a supplier order status onto the invoice status it
// implies. The bool is false for statuses that do not propagate.
func PropagateSupplier(status enums.SupplierOrderStatus) (enums.InvoiceStatus, bool) {
	target, ok := supplierToInvoice[status]
	return target, ok
}

// PropagateInvoice returns the value mirrored into the invoice_status of
// every order linked to the invoice. Every invoice status is mirrored.
func PropagateInvoice(status enums.InvoiceStatus) enums.InvoiceStatus {
	return status
}
