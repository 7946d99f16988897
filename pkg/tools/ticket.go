package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"concierge/pkg/llm"
)

// Ticket is one support ticket tracked by the demo ticket system.
type Ticket struct {
	ID          string `json:"ticket_id"`
	CustomerID  string `json:"customer_id"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Note        string `json:"note,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// TicketStore is an in-memory ticket system shared by the create and
// update tools.
type TicketStore struct {
	mu      sync.Mutex
	tickets map[string]*Ticket
	nextID  int
}

func NewTicketStore() *TicketStore {
	return &TicketStore{
		tickets: make(map[string]*Ticket),
		nextID:  1001,
	}
}

func (s *TicketStore) create(customerID, subject, description, priority string) *Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	t := &Ticket{
		ID:          fmt.Sprintf("TICKET-%d", s.nextID),
		CustomerID:  customerID,
		Subject:     subject,
		Description: description,
		Priority:    priority,
		Status:      "open",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++
	s.tickets[t.ID] = t
	return t
}

func (s *TicketStore) update(id, status, note string) (*Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return nil, false
	}
	if status != "" {
		t.Status = status
	}
	if note != "" {
		t.Note = note
	}
	t.UpdatedAt = time.Now().Unix()
	return t, true
}

var validPriorities = map[string]bool{"low": true, "medium": true, "high": true, "urgent": true}
var validStatuses = map[string]bool{"open": true, "pending": true, "resolved": true, "closed": true}

// CreateTicketTool opens a new support ticket.
type CreateTicketTool struct {
	Store *TicketStore
}

func (t *CreateTicketTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        "create_ticket",
		Description: "Create a new support ticket for a customer issue. Use when the customer reports a problem that needs follow-up.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"customer_id": map[string]any{
					"type":        "string",
					"description": "Identifier of the customer the ticket is for",
				},
				"subject": map[string]any{
					"type":        "string",
					"description": "Short summary of the issue",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "Detailed description of the issue",
				},
				"priority": map[string]any{
					"type":        "string",
					"enum":        []string{"low", "medium", "high", "urgent"},
					"description": "Urgency of the issue",
				},
			},
			"required": []string{"customer_id", "subject"},
		},
	}
}

func (t *CreateTicketTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	customerID, _ := args["customer_id"].(string)
	subject, _ := args["subject"].(string)
	if customerID == "" || subject == "" {
		return nil, fmt.Errorf("customer_id and subject are required")
	}

	description, _ := args["description"].(string)
	priority, _ := args["priority"].(string)
	if priority == "" {
		priority = "medium"
	}
	if !validPriorities[priority] {
		return nil, fmt.Errorf("invalid priority %q, expected low, medium, high or urgent", priority)
	}

	ticket := t.Store.create(customerID, subject, description, priority)
	return map[string]any{
		"ticket_id": ticket.ID,
		"status":    ticket.Status,
		"priority":  ticket.Priority,
		"message":   fmt.Sprintf("Ticket %s created", ticket.ID),
	}, nil
}

// UpdateTicketTool changes the status of an existing ticket or appends a note.
type UpdateTicketTool struct {
	Store *TicketStore
}

func (t *UpdateTicketTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        "update_ticket",
		Description: "Update an existing support ticket: change its status or attach a note.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"ticket_id": map[string]any{
					"type":        "string",
					"description": "Identifier of the ticket, e.g. TICKET-1001",
				},
				"status": map[string]any{
					"type":        "string",
					"enum":        []string{"open", "pending", "resolved", "closed"},
					"description": "New ticket status",
				},
				"note": map[string]any{
					"type":        "string",
					"description": "Note to attach to the ticket",
				},
			},
			"required": []string{"ticket_id"},
		},
	}
}

func (t *UpdateTicketTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	ticketID, _ := args["ticket_id"].(string)
	if ticketID == "" {
		return nil, fmt.Errorf("ticket_id is required")
	}

	status, _ := args["status"].(string)
	if status != "" && !validStatuses[status] {
		return nil, fmt.Errorf("invalid status %q, expected open, pending, resolved or closed", status)
	}
	note, _ := args["note"].(string)

	ticket, ok := t.Store.update(ticketID, status, note)
	if !ok {
		return nil, fmt.Errorf("ticket %s not found", ticketID)
	}
	return ticket, nil
}
