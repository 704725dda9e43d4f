package documents

import (
	"github.com/domeo/domeo-backend/pkg/types"
	"github.com/google/uuid"
)

type orderRequest struct {
	ProjectFileURL string               `json:"project_file_url" validate:"omitempty,url"`
	DoorDimensions types.DoorDimensions `json:"door_dimensions" validate:"omitempty,dive"`
}

type invoiceRequest struct {
	QuoteID *uuid.UUID `json:"quote_id,omitempty"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`
}

type orderDetailsRequest struct {
	ProjectFileURL *string               `json:"project_file_url,omitempty" validate:"omitempty,url"`
	DoorDimensions *types.DoorDimensions `json:"door_dimensions,omitempty"`
}

type statusRequest struct {
	Status             string `json:"status" validate:"required,max=64"`
	RequireMeasurement *bool  `json:"require_measurement,omitempty"`
}

type supplierOrderRequest struct {
	SupplierName string  `json:"supplier_name" validate:"required,max=255"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}
