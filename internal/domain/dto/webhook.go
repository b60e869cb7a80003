package dto

import "github.com/Likith-Yadav/PayCoreX/internal/domain/model"

type CreateEndpointRequest struct {
	URL    string   `json:"url" validate:"required,url,max=500"`
	Events []string `json:"events,omitempty" validate:"omitempty,dive,required,max=50"`
}

// EndpointCreated is the only response that carries the signing secret.
type EndpointCreated struct {
	Endpoint *model.WebhookEndpoint `json:"endpoint"`
	Secret   string                 `json:"secret"`
}

type ListDeliveriesQuery struct {
	Status    string `query:"status" validate:"omitempty,oneof=pending sent failed retrying"`
	EventType string `query:"event_type" validate:"omitempty,max=50"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
}
