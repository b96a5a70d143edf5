// Package chat sequences intent extraction, product matching and bid creation
// for one inbound chat message and composes the bot's reply.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/metrics"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/bid"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/catalog"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/intent"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/llm"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultBidQuantity = 10
	unknownLocation    = "Not specified"
)

// IntentExtractor turns chat text into an extraction. It must not fail.
type IntentExtractor interface {
	Extract(ctx context.Context, message string) intent.Extraction
}

// ProductMatcher finds listings for an extracted product type.
type ProductMatcher interface {
	Match(ctx context.Context, productType, budget, locationHint string) ([]catalog.Product, error)
}

// BidCreator posts bid requests.
type BidCreator interface {
	CreateBid(ctx context.Context, vendor bid.Vendor, req bid.CreateRequest) (*bid.BidRequest, error)
}

// Orchestrator handles one chat turn at a time and holds no per-session state.
type Orchestrator struct {
	extractor    IntentExtractor
	matcher      ProductMatcher
	bids         BidCreator
	conversation llm.TextGenerator
	metrics      *metrics.AppMetrics
	log          *zap.Logger
	now          func() time.Time
}

func NewOrchestrator(extractor IntentExtractor, matcher ProductMatcher, bids BidCreator, conversation llm.TextGenerator, m *metrics.AppMetrics, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		extractor:    extractor,
		matcher:      matcher,
		bids:         bids,
		conversation: conversation,
		metrics:      m,
		log:          log,
		now:          time.Now,
	}
}

// ProcessMessage answers one user message. It always returns a bot message:
// any failure along the way becomes a generic apology.
//
// Branches, in order:
//  1. intent buy with a product type: match listings, or offer a bid request
//  2. intent bid, or the text mentions "bid": create a bid request when the
//     caller is identified and a product type was extracted, else ask for details
//  3. anything else: free conversation through the text generator
func (o *Orchestrator) ProcessMessage(ctx context.Context, text, location, userID, userName, userEmail string) (msg Message) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("Chat turn panicked", zap.Any("panic", r))
			msg = o.message(apology, nil)
		}
	}()

	ex := o.extractor.Extract(ctx, text)
	o.metrics.RecordChatMessage(ctx, string(ex.Intent))

	reply, products, err := o.reply(ctx, ex, text, location, bid.Vendor{ID: userID, Name: userName, Email: userEmail})
	if err != nil {
		o.log.Warn("Chat turn failed",
			zap.String("intent", string(ex.Intent)),
			zap.String("user_id", userID),
			zap.Error(err))
		return o.message(apology, nil)
	}
	return o.message(reply, products)
}

func (o *Orchestrator) reply(ctx context.Context, ex intent.Extraction, text, location string, vendor bid.Vendor) (string, []catalog.Product, error) {
	switch {
	case ex.Intent == intent.Buy && ex.ProductType.Present():
		products, err := o.matcher.Match(ctx, string(ex.ProductType), string(ex.Budget), location)
		if err != nil {
			return "", nil, err
		}
		if len(products) == 0 {
			return notFound(ex), nil, nil
		}
		return productListing(string(ex.ProductType), products), products, nil

	case ex.Intent == intent.Bid || mentionsBid(text):
		if vendor.ID == "" || vendor.Name == "" || vendor.Email == "" || !ex.ProductType.Present() {
			return clarification, nil, nil
		}
		b, err := o.bids.CreateBid(ctx, vendor, bidFromExtraction(ex, location))
		if apperr.KindOf(err) == apperr.KindValidation {
			return clarification, nil, nil
		}
		if err != nil {
			return "", nil, err
		}
		return bidCreated(b), nil, nil

	default:
		reply, err := o.conversation.Generate(ctx, fmt.Sprintf(conversationPrompt, text))
		if err != nil {
			return "", nil, err
		}
		return reply, nil, nil
	}
}

// mentionsBid is a loose keyword trigger checked alongside the extracted
// intent. It is intentionally imprecise ("forbid" matches too).
func mentionsBid(text string) bool {
	return strings.Contains(strings.ToLower(text), "bid")
}

func bidFromExtraction(ex intent.Extraction, location string) bid.CreateRequest {
	quantity, ok := ex.Quantity.FirstInt()
	if !ok || quantity <= 0 {
		quantity = defaultBidQuantity
	}
	price, _ := ex.Budget.FirstInt()

	location = strings.TrimSpace(location)
	if location == "" {
		location = unknownLocation
	}

	return bid.CreateRequest{
		ProductName: string(ex.ProductType),
		Description: "Looking for " + string(ex.ProductType),
		Quantity:    quantity,
		BidPrice:    float64(price),
		Urgency:     urgency(ex.Urgency),
		Location:    location,
	}
}

func urgency(t intent.Text) bid.Urgency {
	u := bid.Urgency(strings.ToLower(string(t)))
	switch u {
	case bid.UrgencyImmediate, bid.UrgencyToday, bid.UrgencyTomorrow, bid.UrgencyThisWeek:
		return u
	}
	return bid.UrgencyThisWeek
}

func (o *Orchestrator) message(text string, products []catalog.Product) Message {
	return Message{
		ID:        "bot_" + uuid.NewString(),
		Message:   text,
		IsBot:     true,
		Timestamp: o.now().UTC(),
		Products:  products,
	}
}
