package chat

import (
	"fmt"
	"strings"

	"github.com/freshfarm/vendorgpt-backend/internal/modules/bid"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/catalog"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/intent"
)

const apology = "Sorry, I'm having trouble processing your request right now. Please try again."

const clarification = `To create a bid request, I need more details:

Please provide:
- What product do you need?
- How much quantity?
- Your budget per unit
- When do you need it?

Example: "I need 20kg onions, budget ₹30 per kg, needed tomorrow"`

const conversationPrompt = `You are VendorGPT, an AI assistant helping street food vendors find suppliers.

User said: %q

Context: You help vendors find fresh vegetables, fruits, and ingredients from local suppliers.
You also help them create bid requests when products aren't available.

Respond in a helpful, friendly manner. If they need suppliers, ask for:
- What product they need
- How much quantity
- Their budget (if flexible)
- When they need it

Keep responses concise and practical.`

func productListing(productType string, products []catalog.Product) string {
	var b strings.Builder
	plural := ""
	if len(products) > 1 {
		plural = "s"
	}
	fmt.Fprintf(&b, "Great! I found %d supplier%s for %s:\n\n", len(products), plural, productType)

	for i, p := range products {
		if i > 0 {
			b.WriteString("\n\n")
		}
		supplier := p.WholesalerName
		if supplier == "" {
			supplier = "Supplier"
		}
		fmt.Fprintf(&b, "%d. **%s** - ₹%s/unit\n", i+1, p.Name, formatPrice(p.Price))
		fmt.Fprintf(&b, "   📍 %s, %s\n", p.Address, p.City)
		fmt.Fprintf(&b, "   👤 %s\n", supplier)
		fmt.Fprintf(&b, "   📦 Available: %d units (Min order: %d)\n", p.Quantity, p.MinOrder)
		fmt.Fprintf(&b, "   📞 %s %s", p.CountryCode, p.MobileNo)
	}

	b.WriteString("\n\nWould you like to:\n")
	b.WriteString("• View detailed photos of any product\n")
	b.WriteString("• Contact a supplier directly\n")
	b.WriteString("• Check delivery options")
	return b.String()
}

func notFound(ex intent.Extraction) string {
	budget := string(ex.Budget)
	if budget == "" {
		budget = "50"
	}
	quantity := string(ex.Quantity)
	if quantity == "" {
		quantity = "10kg"
	}
	return fmt.Sprintf(`Sorry, I couldn't find any %[1]s suppliers in your area right now.

Would you like to:
1. **Create a Bid Request** - Tell wholesalers what you need and your budget
2. Search in nearby areas (within 10km)?
3. Get notified when suppliers become available?

To create a bid request, just say something like:
"I want to bid ₹%[2]s for %[3]s %[1]s"`, ex.ProductType, budget, quantity)
}

func bidCreated(b *bid.BidRequest) string {
	price := "Not specified"
	if b.BidPrice > 0 {
		price = formatPrice(b.BidPrice)
	}
	return fmt.Sprintf(`✅ **Bid Request Created Successfully!**

**Request Details:**
- Product: %s
- Quantity: %d units
- Your Bid: ₹%s
- Urgency: %s

Your request has been sent to all nearby wholesalers. You'll be notified when someone accepts your bid!

**Request ID:** %s`, b.ProductName, b.Quantity, price, urgencyLabel(b.Urgency), b.ID)
}

func urgencyLabel(u bid.Urgency) string {
	switch u {
	case bid.UrgencyImmediate:
		return "Immediate"
	case bid.UrgencyToday:
		return "Today"
	case bid.UrgencyTomorrow:
		return "Tomorrow"
	default:
		return "This week"
	}
}

// formatPrice drops a trailing .00 so 30 renders as "30" and 22.5 as "22.50".
func formatPrice(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	return strings.TrimSuffix(s, ".00")
}
