// Package message turns an event type and its parameters into the push
// payload shown on the mobile app.
package message

import (
	"fmt"
	"strconv"

	"foodbank-notifier/internal/models"
)

const (
	DefaultThresholdDays = 3
	DefaultBadge         = 1

	androidPriority = "high"
	androidChannel  = "default"
	defaultSound    = "default"
)

// Params carries the optional values substituted into a message.
type Params struct {
	ItemCount     int    `json:"itemCount,omitempty"`
	ThresholdDays int    `json:"thresholdDays,omitempty"`
	RequestID     string `json:"requestId,omitempty"`
	ApplicationID string `json:"applicationId,omitempty"`
	ProposedDate  string `json:"proposedDate,omitempty"`
	Badge         int    `json:"badge,omitempty"`
}

type template struct {
	title  string
	screen string
	body   func(p Params) string
}

func fixed(body string) func(Params) string {
	return func(Params) string { return body }
}

var templates = map[models.EventType]template{
	models.EventNewApplication: {
		title:  "Nova candidatura",
		screen: "AdminApplications",
		body:   fixed("Recebeu uma nova candidatura para análise."),
	},
	models.EventNewRequest: {
		title:  "Novo pedido",
		screen: "AdminRequests",
		body:   fixed("Foi submetido um novo pedido de levantamento."),
	},
	models.EventApplicationAccepted: {
		title:  "Candidatura aceite",
		screen: "Home",
		body:   fixed("A sua candidatura foi aceite. Já pode fazer pedidos."),
	},
	models.EventApplicationRejected: {
		title:  "Candidatura rejeitada",
		screen: "ApplicationStatus",
		body:   fixed("A sua candidatura foi rejeitada. Consulte os detalhes na aplicação."),
	},
	models.EventRequestAccepted: {
		title:  "Pedido aceite",
		screen: "RequestDetails",
		body:   fixed("O seu pedido foi aceite."),
	},
	models.EventRequestRejected: {
		title:  "Pedido rejeitado",
		screen: "RequestDetails",
		body:   fixed("O seu pedido foi rejeitado. Consulte os detalhes na aplicação."),
	},
	models.EventDateProposed: {
		title:  "Nova data proposta",
		screen: "RequestDetails",
		body: func(p Params) string {
			if p.ProposedDate != "" {
				return fmt.Sprintf("Foi proposta a data %s para o levantamento do seu pedido.", p.ProposedDate)
			}
			return "Foi proposta uma nova data para o levantamento do seu pedido."
		},
	},
	models.EventDateAccepted: {
		title:  "Data aceite",
		screen: "AdminRequestDetails",
		body:   fixed("O beneficiário aceitou a data de levantamento proposta."),
	},
	models.EventPickupReminder: {
		title:  "Lembrete de levantamento",
		screen: "RequestDetails",
		body:   fixed("Hoje é o dia de levantamento do seu pedido. Não se esqueça!"),
	},
	models.EventExpiringItems: {
		title:  "Produtos a expirar",
		screen: "Stock",
		body: func(p Params) string {
			days := p.ThresholdDays
			if days <= 0 {
				days = DefaultThresholdDays
			}
			if p.ItemCount == 1 {
				return fmt.Sprintf("1 item está a expirar nos próximos %d dias.", days)
			}
			return fmt.Sprintf("%d itens estão a expirar nos próximos %d dias.", p.ItemCount, days)
		},
	},
}

// Build returns the notification for eventType. It has no side effects and
// returns an error only for unknown event types.
func Build(eventType models.EventType, p Params) (*models.NotificationEvent, error) {
	tpl, ok := templates[eventType]
	if !ok {
		return nil, fmt.Errorf("unknown notification type %q", eventType)
	}

	data := map[string]string{
		"type":   string(eventType),
		"screen": tpl.screen,
	}
	if p.RequestID != "" {
		data["requestId"] = p.RequestID
	}
	if p.ApplicationID != "" {
		data["applicationId"] = p.ApplicationID
	}
	if p.ProposedDate != "" {
		data["proposedDate"] = p.ProposedDate
	}
	if eventType == models.EventExpiringItems {
		data["itemCount"] = strconv.Itoa(p.ItemCount)
	}

	badge := p.Badge
	if badge <= 0 {
		badge = DefaultBadge
	}

	return &models.NotificationEvent{
		Type:  eventType,
		Title: tpl.title,
		Body:  tpl.body(p),
		Data:  data,
		Android: models.AndroidHints{
			Priority:  androidPriority,
			ChannelID: androidChannel,
			Sound:     defaultSound,
		},
		APNS: models.APNSHints{
			Sound: defaultSound,
			Badge: badge,
		},
	}, nil
}
