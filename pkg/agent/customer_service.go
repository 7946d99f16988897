package agent

import (
	"concierge/pkg/tools"
)

const customerServicePersona = `You are a helpful customer service agent.
You help customers with questions about billing, accounts and shipping.
Use search_faq to answer common questions from the knowledge base.
When a customer reports a problem that needs follow-up, create a ticket with
create_ticket, and use update_ticket to change its status or attach notes.
Always confirm ticket IDs back to the customer. Be concise and friendly.`

// newCustomerServiceAgent builds the customer service kind: FAQ search plus
// a per-agent ticket system.
func newCustomerServiceAgent(id string, deps BuildDeps) (*Agent, error) {
	registry := tools.NewRegistry()
	ticketStore := tools.NewTicketStore()

	if err := registry.Register(&tools.CreateTicketTool{Store: ticketStore}); err != nil {
		return nil, err
	}
	if err := registry.Register(&tools.UpdateTicketTool{Store: ticketStore}); err != nil {
		return nil, err
	}
	if err := registry.Register(tools.NewSearchFAQTool()); err != nil {
		return nil, err
	}

	persona := customerServicePersona
	if deps.AppCfg != nil && deps.AppCfg.SystemPrompt != "" {
		persona = deps.AppCfg.SystemPrompt
	}

	return &Agent{
		kind:   "customer_service",
		id:     id,
		sysCfg: deps.SysCfg,
		engine: NewEngine(deps.Client, deps.Store, registry, deps.SysCfg, persona),
	}, nil
}

func init() {
	RegisterKind("customer_service", newCustomerServiceAgent)
}
